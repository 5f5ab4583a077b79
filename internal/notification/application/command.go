package application

import (
	"context"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// AcknowledgeNotificationsData marca notificações como entregues depois
// que o cliente as exibiu.
type AcknowledgeNotificationsData struct {
	UserID          string   `json:"user_id"`
	NotificationIDs []string `json:"notification_ids"`
}

type acknowledgeNotificationsCommand struct {
	data AcknowledgeNotificationsData
}

func (c acknowledgeNotificationsCommand) CommandName() string {
	return "AcknowledgeNotifications"
}

func (c acknowledgeNotificationsCommand) Payload() AcknowledgeNotificationsData {
	return c.data
}

func NewAcknowledgeNotificationsCommand(data AcknowledgeNotificationsData) pkgDomain.Command[AcknowledgeNotificationsData] {
	return acknowledgeNotificationsCommand{data: data}
}

type acknowledgeNotificationsHandler struct {
	repository domain.NotificationRepository
	logger     pkgApp.AppLogger
}

func (h *acknowledgeNotificationsHandler) Handle(ctx context.Context, command pkgDomain.Command[AcknowledgeNotificationsData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	return h.repository.MarkDelivered(ctx, data.UserID, data.NotificationIDs)
}

func NewAcknowledgeNotificationsHandler(repository domain.NotificationRepository, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[AcknowledgeNotificationsData], AcknowledgeNotificationsData] {
	return &acknowledgeNotificationsHandler{repository: repository, logger: logger}
}
