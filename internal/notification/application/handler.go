package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// marketplaceEventHandler materializa cada evento do ciclo de vida em
// notificações persistidas, uma por destinatário da audiência. A
// gravação acontece antes de qualquer push: entrega ao vivo é melhor
// esforço, a pendência persistida é a garantia.
type marketplaceEventHandler struct {
	repository domain.NotificationRepository
	pusher     domain.Pusher
	logger     pkgApp.AppLogger
}

func NewMarketplaceEventHandler(repository domain.NotificationRepository, pusher domain.Pusher, logger pkgApp.AppLogger) pkgApp.EventHandler[pkgDomain.Event[event.Data], event.Data] {
	return &marketplaceEventHandler{
		repository: repository,
		pusher:     pusher,
		logger:     logger,
	}
}

func (h *marketplaceEventHandler) Handle(ctx context.Context, evt pkgDomain.Event[event.Data]) error {
	data := evt.Payload()

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	for _, userID := range recipients(data) {
		notification := domain.Notification{
			ID:        data.EventID + ":" + userID,
			UserID:    userID,
			EventID:   data.EventID,
			EventType: data.Type,
			BookingID: data.BookingID,
			RideID:    data.RideID,
			Payload:   string(payload),
			CreatedAt: time.Now().UTC(),
		}

		if err := h.repository.Save(ctx, notification); err != nil {
			pkgApp.LogError(ctx, h.logger, "falha ao persistir notificação", err, map[string]interface{}{
				"notification_id": notification.ID,
				"event_type":      data.Type,
			})
			return err
		}

		if h.pusher == nil {
			continue
		}
		if err := h.pusher.Push(ctx, notification); err != nil {
			pkgApp.LogInfo(ctx, h.logger, "push de notificação falhou, mantida como pendente", map[string]interface{}{
				"notification_id": notification.ID,
				"user_id":         userID,
			})
			continue
		}
		if err := h.repository.MarkDelivered(ctx, userID, []string{notification.ID}); err != nil {
			pkgApp.LogError(ctx, h.logger, "falha ao marcar notificação entregue", err, map[string]interface{}{
				"notification_id": notification.ID,
			})
		}
	}

	return nil
}

// recipients resolve a audiência do evento para os usuários concretos.
func recipients(data event.Data) []string {
	var users []string
	if (data.Audience == event.AudienceDriver || data.Audience == event.AudienceBoth) && data.DriverID != "" {
		users = append(users, data.DriverID)
	}
	if (data.Audience == event.AudienceRider || data.Audience == event.AudienceBoth) && data.RiderID != "" {
		users = append(users, data.RiderID)
	}
	return users
}
