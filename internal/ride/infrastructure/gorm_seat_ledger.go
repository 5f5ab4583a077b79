package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/application"
)

type gormSeatLedger struct {
	db     *gorm.DB
	logger application.AppLogger
}

// NewGormSeatLedger mantém os contadores de assentos no banco. O passo
// de reserva é um único UPDATE condicional guardado por
// available_seats >= seats, então reservas concorrentes na mesma carona
// serializam na linha da carona e nunca vendem além da capacidade.
func NewGormSeatLedger(db *gorm.DB, logger application.AppLogger) (domain.SeatLedger, error) {
	if err := db.AutoMigrate(&domain.SeatReservation{}); err != nil {
		return nil, err
	}

	return &gormSeatLedger{
		db:     db,
		logger: logger,
	}, nil
}

func (l *gormSeatLedger) Reserve(ctx context.Context, rideID, bookingID string, seats int) (domain.SeatReservation, error) {
	if seats < 1 {
		return domain.SeatReservation{}, domain.ErrInvalidSeatCount
	}

	now := time.Now().UTC()
	reservation := domain.SeatReservation{
		BookingID: bookingID,
		RideID:    rideID,
		Seats:     seats,
		State:     domain.ReservationStateHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Ride{}).
			Where("id = ? AND status = ? AND available_seats >= ?", rideID, domain.RideStatusScheduled, seats).
			UpdateColumn("available_seats", gorm.Expr("available_seats - ?", seats))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var current domain.Ride
			if err := tx.First(&current, "id = ?", rideID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrRideNotFound
				}
				return err
			}
			if current.Status != domain.RideStatusScheduled {
				return domain.ErrInvalidTransition
			}
			return domain.ErrInsufficientSeats
		}

		return tx.Create(&reservation).Error
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientSeats) && !errors.Is(err, domain.ErrRideNotFound) && !errors.Is(err, domain.ErrInvalidTransition) {
			application.LogError(ctx, l.logger, "failed to reserve seats", err, map[string]interface{}{
				"ride_id":    rideID,
				"booking_id": bookingID,
				"seats":      seats,
			})
		}
		return domain.SeatReservation{}, err
	}

	return reservation, nil
}

func (l *gormSeatLedger) Release(ctx context.Context, bookingID string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservation domain.SeatReservation
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&reservation, "booking_id = ?", bookingID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrReservationNotFound
			}
			return err
		}

		// Liberar duas vezes é um no-op.
		if reservation.State == domain.ReservationStateReleased {
			return nil
		}

		result := tx.Model(&domain.Ride{}).
			Where("id = ?", reservation.RideID).
			UpdateColumn("available_seats", gorm.Expr("available_seats + ?", reservation.Seats))
		if result.Error != nil {
			return result.Error
		}

		return tx.Model(&domain.SeatReservation{}).
			Where("booking_id = ?", bookingID).
			Updates(map[string]interface{}{
				"state":      domain.ReservationStateReleased,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (l *gormSeatLedger) Confirm(ctx context.Context, bookingID string) error {
	result := l.db.WithContext(ctx).Model(&domain.SeatReservation{}).
		Where("booking_id = ? AND state IN ?", bookingID, []domain.ReservationState{domain.ReservationStateHeld, domain.ReservationStateConfirmed}).
		Updates(map[string]interface{}{
			"state":      domain.ReservationStateConfirmed,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrReservationNotFound
	}

	return nil
}
