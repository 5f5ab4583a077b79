package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/application"
)

type gormRideRepository struct {
	db     *gorm.DB
	logger application.AppLogger
}

func NewGormRideRepository(db *gorm.DB, logger application.AppLogger) (domain.RideRepository, error) {
	if err := db.AutoMigrate(&domain.Ride{}); err != nil {
		return nil, err
	}

	return &gormRideRepository{
		db:     db,
		logger: logger,
	}, nil
}

func (r *gormRideRepository) Save(ctx context.Context, ride domain.Ride) error {
	if err := r.db.WithContext(ctx).Create(&ride).Error; err != nil {
		application.LogError(ctx, r.logger, "failed to save ride", err, map[string]interface{}{
			"ride": ride,
		})
		return err
	}

	return nil
}

func (r *gormRideRepository) FindByID(ctx context.Context, id string) (domain.Ride, error) {
	var ride domain.Ride

	if err := r.db.WithContext(ctx).First(&ride, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Ride{}, domain.ErrRideNotFound
		}
		application.LogError(ctx, r.logger, "failed to find ride", err, map[string]interface{}{
			"ride_id": id,
		})
		return domain.Ride{}, err
	}

	return ride, nil
}

// UpdateStatus é um update condicional: zero linhas afetadas significa
// que o status corrente já não era o esperado.
func (r *gormRideRepository) UpdateStatus(ctx context.Context, rideID string, from, to domain.RideStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Ride{}).
		Where("id = ? AND status = ?", rideID, from).
		Update("status", to)
	if result.Error != nil {
		application.LogError(ctx, r.logger, "failed to update ride status", result.Error, map[string]interface{}{
			"ride_id": rideID,
			"from":    from,
			"to":      to,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflictingOperation
	}

	return nil
}
