package infrastructure

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

// WatermillPusher publica cada notificação no tópico do destinatário
// (notifications.<userId>). Clientes conectados consomem o tópico para
// entrega ao vivo; quem não estiver conectado recupera pela listagem de
// pendências.
type WatermillPusher struct {
	publisher message.Publisher
	logger    pkgApp.AppLogger
}

func NewWatermillPusher(publisher message.Publisher, logger pkgApp.AppLogger) *WatermillPusher {
	return &WatermillPusher{publisher: publisher, logger: logger}
}

func (p *WatermillPusher) Push(ctx context.Context, notification domain.Notification) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(notification.Payload))
	msg.Metadata.Set("notification_id", notification.ID)
	msg.Metadata.Set("event_type", notification.EventType)

	if err := p.publisher.Publish("notifications."+notification.UserID, msg); err != nil {
		return err
	}

	pkgApp.LogInfo(ctx, p.logger, "notification pushed", map[string]interface{}{
		"notification_id": notification.ID,
		"user_id":         notification.UserID,
	})
	return nil
}
