package notification

import (
	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/notification/application"
	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	"github.com/mateusmacedo/go-rideshare/internal/notification/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type NotificationSlice struct {
	httpHandler *infrastructure.NotificationHTTPHandler
}

func NewNotificationSlice(
	ackBus pkgApp.CommandBus[pkgDomain.Command[application.AcknowledgeNotificationsData], application.AcknowledgeNotificationsData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.PendingNotificationsData], application.PendingNotificationsData, []domain.Notification],
	logger pkgApp.AppLogger,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	repository domain.NotificationRepository,
	pusher domain.Pusher,
) *NotificationSlice {
	eventHandler := application.NewMarketplaceEventHandler(repository, pusher, logger)
	for _, name := range event.Names() {
		eventBus.RegisterHandler(name, eventHandler)
	}

	ackBus.RegisterHandler("AcknowledgeNotifications", application.NewAcknowledgeNotificationsHandler(repository, logger))
	queryBus.RegisterHandler("PendingNotifications", application.NewPendingNotificationsHandler(repository, logger))

	return &NotificationSlice{
		httpHandler: infrastructure.NewNotificationHTTPHandler(ackBus, queryBus),
	}
}

func (s *NotificationSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
