package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type RideHTTPHandler struct {
	publishBus pkgApp.CommandBus[pkgDomain.Command[application.PublishRideData], application.PublishRideData]
	actionBus  pkgApp.CommandBus[pkgDomain.Command[application.RideActionData], application.RideActionData]
	queryBus   pkgApp.QueryBus[pkgDomain.Query[application.FindRideData], application.FindRideData, domain.Ride]
}

func NewRideHTTPHandler(
	publishBus pkgApp.CommandBus[pkgDomain.Command[application.PublishRideData], application.PublishRideData],
	actionBus pkgApp.CommandBus[pkgDomain.Command[application.RideActionData], application.RideActionData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.FindRideData], application.FindRideData, domain.Ride],
) *RideHTTPHandler {
	return &RideHTTPHandler{
		publishBus: publishBus,
		actionBus:  actionBus,
		queryBus:   queryBus,
	}
}

func (h *RideHTTPHandler) HandlePublishRide(w http.ResponseWriter, r *http.Request) {
	var data application.PublishRideData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.publishBus.Dispatch(ctx, application.NewPublishRideCommand(data)); err != nil {
		http.Error(w, err.Error(), statusFromRideError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"message": "Ride published", "data": data}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *RideHTTPHandler) handleAction(w http.ResponseWriter, r *http.Request, build func(application.RideActionData) pkgDomain.Command[application.RideActionData]) {
	var data application.RideActionData
	if r.Body != nil {
		// Corpo vazio é aceitável para start/complete.
		_ = json.NewDecoder(r.Body).Decode(&data)
	}
	data.RideID = chi.URLParam(r, "rideID")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.actionBus.Dispatch(ctx, build(data)); err != nil {
		http.Error(w, err.Error(), statusFromRideError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"ride_id": data.RideID}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *RideHTTPHandler) HandleStartRide(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewStartRideCommand)
}

func (h *RideHTTPHandler) HandleCompleteRide(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewCompleteRideCommand)
}

func (h *RideHTTPHandler) HandleCancelRide(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewCancelRideCommand)
}

func (h *RideHTTPHandler) HandleFindRide(w http.ResponseWriter, r *http.Request) {
	query := application.NewFindRideQuery(application.FindRideData{
		RideID: chi.URLParam(r, "rideID"),
	})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ride, err := h.queryBus.Dispatch(ctx, query)
	if err != nil {
		http.Error(w, err.Error(), statusFromRideError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ride); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *RideHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Post("/rides", h.HandlePublishRide)
	router.Get("/rides/{rideID}", h.HandleFindRide)
	router.Post("/rides/{rideID}/start", h.HandleStartRide)
	router.Post("/rides/{rideID}/complete", h.HandleCompleteRide)
	router.Post("/rides/{rideID}/cancel", h.HandleCancelRide)
}

func statusFromRideError(err error) int {
	switch {
	case errors.Is(err, domain.ErrRideNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientSeats), errors.Is(err, domain.ErrConflictingOperation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotRideDriver):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidSeatCount), errors.Is(err, domain.ErrInvalidPrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
