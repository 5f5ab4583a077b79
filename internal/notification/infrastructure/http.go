package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/notification/application"
	"github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type NotificationHTTPHandler struct {
	ackBus   pkgApp.CommandBus[pkgDomain.Command[application.AcknowledgeNotificationsData], application.AcknowledgeNotificationsData]
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.PendingNotificationsData], application.PendingNotificationsData, []domain.Notification]
}

func NewNotificationHTTPHandler(
	ackBus pkgApp.CommandBus[pkgDomain.Command[application.AcknowledgeNotificationsData], application.AcknowledgeNotificationsData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.PendingNotificationsData], application.PendingNotificationsData, []domain.Notification],
) *NotificationHTTPHandler {
	return &NotificationHTTPHandler{ackBus: ackBus, queryBus: queryBus}
}

func (h *NotificationHTTPHandler) HandlePendingNotifications(w http.ResponseWriter, r *http.Request) {
	query := application.NewPendingNotificationsQuery(application.PendingNotificationsData{
		UserID: chi.URLParam(r, "userID"),
	})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	notifications, err := h.queryBus.Dispatch(ctx, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(notifications); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *NotificationHTTPHandler) HandleAcknowledgeNotifications(w http.ResponseWriter, r *http.Request) {
	var data application.AcknowledgeNotificationsData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	data.UserID = chi.URLParam(r, "userID")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.ackBus.Dispatch(ctx, application.NewAcknowledgeNotificationsCommand(data)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Get("/users/{userID}/notifications", h.HandlePendingNotifications)
	router.Post("/users/{userID}/notifications/ack", h.HandleAcknowledgeNotifications)
}
