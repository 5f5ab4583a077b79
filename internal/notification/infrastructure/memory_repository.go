package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
)

// InMemoryNotificationRepository guarda notificações em memória para
// desenvolvimento e testes.
type InMemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]domain.Notification
}

func NewInMemoryNotificationRepository() *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{
		notifications: make(map[string]domain.Notification),
	}
}

func (r *InMemoryNotificationRepository) Save(ctx context.Context, notification domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[notification.ID]; ok {
		return nil
	}
	r.notifications[notification.ID] = notification
	return nil
}

func (r *InMemoryNotificationRepository) FindPendingByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []domain.Notification
	for _, notification := range r.notifications {
		if notification.UserID == userID && !notification.Delivered {
			pending = append(pending, notification)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (r *InMemoryNotificationRepository) MarkDelivered(ctx context.Context, userID string, notificationIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, id := range notificationIDs {
		notification, ok := r.notifications[id]
		if !ok || notification.UserID != userID {
			continue
		}
		notification.Delivered = true
		notification.DeliveredAt = &now
		r.notifications[id] = notification
	}
	return nil
}
