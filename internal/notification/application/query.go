package application

import (
	"context"

	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// PendingNotificationsData identifica o usuário cujas notificações
// pendentes devem ser listadas.
type PendingNotificationsData struct {
	UserID string `json:"user_id"`
}

type pendingNotificationsQuery struct {
	data PendingNotificationsData
}

func (q pendingNotificationsQuery) QueryName() string {
	return "PendingNotifications"
}

func (q pendingNotificationsQuery) Payload() PendingNotificationsData {
	return q.data
}

func NewPendingNotificationsQuery(data PendingNotificationsData) pkgDomain.Query[PendingNotificationsData] {
	return pendingNotificationsQuery{data: data}
}

type pendingNotificationsHandler struct {
	repository domain.NotificationRepository
	logger     pkgApp.AppLogger
}

func (h *pendingNotificationsHandler) Handle(ctx context.Context, query pkgDomain.Query[PendingNotificationsData]) ([]domain.Notification, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return h.repository.FindPendingByUser(ctx, query.Payload().UserID)
}

func NewPendingNotificationsHandler(repository domain.NotificationRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[PendingNotificationsData], PendingNotificationsData, []domain.Notification] {
	return &pendingNotificationsHandler{repository: repository, logger: logger}
}
