package infrastructure

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

// GormNotificationRepository persiste notificações via GORM. A inserção
// usa ON CONFLICT DO NOTHING sobre o ID determinístico, o que absorve
// reentregas do barramento.
type GormNotificationRepository struct {
	db     *gorm.DB
	logger pkgApp.AppLogger
}

func NewGormNotificationRepository(db *gorm.DB, logger pkgApp.AppLogger) (*GormNotificationRepository, error) {
	if err := db.AutoMigrate(&domain.Notification{}); err != nil {
		return nil, err
	}
	return &GormNotificationRepository{db: db, logger: logger}, nil
}

func (r *GormNotificationRepository) Save(ctx context.Context, notification domain.Notification) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&notification).Error
	if err != nil {
		pkgApp.LogError(ctx, r.logger, "falha ao salvar notificação", err, map[string]interface{}{
			"notification_id": notification.ID,
		})
		return err
	}
	return nil
}

func (r *GormNotificationRepository) FindPendingByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	var notifications []domain.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND delivered = ?", userID, false).
		Order("created_at ASC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *GormNotificationRepository) MarkDelivered(ctx context.Context, userID string, notificationIDs []string) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND id IN ?", userID, notificationIDs).
		Updates(map[string]interface{}{"delivered": true, "delivered_at": now}).Error
}
