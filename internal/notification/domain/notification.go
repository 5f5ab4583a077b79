package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification é a cópia persistida de um evento endereçada a um
// usuário. O ID determinístico (eventId:userId) torna a gravação
// idempotente sob reentrega do barramento. Delivered marca o push ou o
// acknowledge do usuário; enquanto falso a notificação aparece na
// listagem de pendências.
type Notification struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"userId" gorm:"index"`
	EventID     string     `json:"eventId"`
	EventType   string     `json:"eventType"`
	BookingID   string     `json:"bookingId,omitempty"`
	RideID      string     `json:"rideId,omitempty"`
	Payload     string     `json:"payload"`
	Delivered   bool       `json:"delivered" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}

type NotificationRepository interface {
	// Save é idempotente: um ID já gravado é ignorado.
	Save(ctx context.Context, notification Notification) error

	FindPendingByUser(ctx context.Context, userID string) ([]Notification, error)
	MarkDelivered(ctx context.Context, userID string, notificationIDs []string) error
}

// Pusher entrega uma notificação por um canal de melhor esforço
// (websocket, push móvel, tópico por usuário). Falha de push não é
// falha de processamento; a notificação permanece pendente.
type Pusher interface {
	Push(ctx context.Context, notification Notification) error
}
