package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

// GormBookingRepository persiste bookings via GORM.
type GormBookingRepository struct {
	db     *gorm.DB
	logger pkgApp.AppLogger
}

func NewGormBookingRepository(db *gorm.DB, logger pkgApp.AppLogger) (*GormBookingRepository, error) {
	if err := db.AutoMigrate(&domain.Booking{}); err != nil {
		return nil, err
	}
	return &GormBookingRepository{db: db, logger: logger}, nil
}

func (r *GormBookingRepository) Save(ctx context.Context, booking domain.Booking) error {
	if err := r.db.WithContext(ctx).Create(&booking).Error; err != nil {
		// Índice único em idempotency_key: criação duplicada perde a
		// corrida para quem já gravou.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflictingOperation
		}
		pkgApp.LogError(ctx, r.logger, "falha ao salvar booking", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
		return err
	}
	return nil
}

func (r *GormBookingRepository) FindByID(ctx context.Context, bookingID string) (domain.Booking, error) {
	var booking domain.Booking
	err := r.db.WithContext(ctx).First(&booking, "id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

func (r *GormBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (domain.Booking, error) {
	var booking domain.Booking
	err := r.db.WithContext(ctx).First(&booking, "idempotency_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, err
	}
	return booking, nil
}

func (r *GormBookingRepository) FindByRideAndStatus(ctx context.Context, rideID string, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := r.db.WithContext(ctx).
		Where("ride_id = ? AND booking_status IN ?", rideID, statuses).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: false}).
		Save(&booking).Error
	if err != nil {
		pkgApp.LogError(ctx, r.logger, "falha ao atualizar booking", err, map[string]interface{}{
			"booking_id": booking.ID,
		})
		return err
	}
	return nil
}

// GormPaymentOperationRepository persiste o registro de idempotência
// das operações contra o provedor de pagamento.
type GormPaymentOperationRepository struct {
	db     *gorm.DB
	logger pkgApp.AppLogger
}

func NewGormPaymentOperationRepository(db *gorm.DB, logger pkgApp.AppLogger) (*GormPaymentOperationRepository, error) {
	if err := db.AutoMigrate(&domain.PaymentOperation{}); err != nil {
		return nil, err
	}
	return &GormPaymentOperationRepository{db: db, logger: logger}, nil
}

func (r *GormPaymentOperationRepository) FindByKey(ctx context.Context, idempotencyKey string) (domain.PaymentOperation, error) {
	var op domain.PaymentOperation
	err := r.db.WithContext(ctx).First(&op, "idempotency_key = ?", idempotencyKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PaymentOperation{}, domain.ErrOperationNotFound
	}
	if err != nil {
		return domain.PaymentOperation{}, err
	}
	return op, nil
}

func (r *GormPaymentOperationRepository) Save(ctx context.Context, op domain.PaymentOperation) error {
	if err := r.db.WithContext(ctx).Create(&op).Error; err != nil {
		pkgApp.LogError(ctx, r.logger, "falha ao registrar operação de pagamento", err, map[string]interface{}{
			"idempotency_key": op.IdempotencyKey,
		})
		return err
	}
	return nil
}

func (r *GormPaymentOperationRepository) Update(ctx context.Context, op domain.PaymentOperation) error {
	return r.db.WithContext(ctx).Save(&op).Error
}
