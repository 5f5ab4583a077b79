package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	ridedomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type BookingHTTPHandler struct {
	createBus   pkgApp.CommandBus[pkgDomain.Command[application.CreateBookingData], application.CreateBookingData]
	actionBus   pkgApp.CommandBus[pkgDomain.Command[application.BookingActionData], application.BookingActionData]
	queryBus    pkgApp.QueryBus[pkgDomain.Query[application.FindBookingData], application.FindBookingData, domain.Booking]
	idGenerator pkgDomain.IDGenerator[string]
}

func NewBookingHTTPHandler(
	createBus pkgApp.CommandBus[pkgDomain.Command[application.CreateBookingData], application.CreateBookingData],
	actionBus pkgApp.CommandBus[pkgDomain.Command[application.BookingActionData], application.BookingActionData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.FindBookingData], application.FindBookingData, domain.Booking],
	idGenerator pkgDomain.IDGenerator[string],
) *BookingHTTPHandler {
	return &BookingHTTPHandler{
		createBus:   createBus,
		actionBus:   actionBus,
		queryBus:    queryBus,
		idGenerator: idGenerator,
	}
}

func (h *BookingHTTPHandler) HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var data application.CreateBookingData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if data.IdempotencyKey == "" {
		data.IdempotencyKey = h.idGenerator()
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.createBus.Dispatch(ctx, application.NewCreateBookingCommand(data)); err != nil {
		http.Error(w, err.Error(), statusFromBookingError(err))
		return
	}

	booking, err := h.queryBus.Dispatch(ctx, application.NewFindBookingQuery(application.FindBookingData{
		IdempotencyKey: data.IdempotencyKey,
	}))
	if err != nil {
		http.Error(w, err.Error(), statusFromBookingError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(booking); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *BookingHTTPHandler) handleAction(w http.ResponseWriter, r *http.Request, build func(application.BookingActionData) pkgDomain.Command[application.BookingActionData]) {
	var data application.BookingActionData
	if r.Body != nil {
		// Corpo vazio é aceitável para accept.
		_ = json.NewDecoder(r.Body).Decode(&data)
	}
	data.BookingID = chi.URLParam(r, "bookingID")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.actionBus.Dispatch(ctx, build(data)); err != nil {
		http.Error(w, err.Error(), statusFromBookingError(err))
		return
	}

	booking, err := h.queryBus.Dispatch(ctx, application.NewFindBookingQuery(application.FindBookingData{
		BookingID: data.BookingID,
	}))
	if err != nil {
		http.Error(w, err.Error(), statusFromBookingError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(booking); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *BookingHTTPHandler) HandleAcceptBooking(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewAcceptBookingCommand)
}

func (h *BookingHTTPHandler) HandleRejectBooking(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewRejectBookingCommand)
}

func (h *BookingHTTPHandler) HandleCancelBooking(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewCancelBookingCommand)
}

func (h *BookingHTTPHandler) HandleRetryPayment(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, application.NewRetryPaymentCommand)
}

func (h *BookingHTTPHandler) HandleFindBooking(w http.ResponseWriter, r *http.Request) {
	query := application.NewFindBookingQuery(application.FindBookingData{
		BookingID: chi.URLParam(r, "bookingID"),
	})

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	booking, err := h.queryBus.Dispatch(ctx, query)
	if err != nil {
		http.Error(w, err.Error(), statusFromBookingError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(booking); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *BookingHTTPHandler) RegisterRoutes(router chi.Router) {
	router.Post("/bookings", h.HandleCreateBooking)
	router.Get("/bookings/{bookingID}", h.HandleFindBooking)
	router.Post("/bookings/{bookingID}/accept", h.HandleAcceptBooking)
	router.Post("/bookings/{bookingID}/reject", h.HandleRejectBooking)
	router.Post("/bookings/{bookingID}/cancel", h.HandleCancelBooking)
	router.Post("/bookings/{bookingID}/retry-payment", h.HandleRetryPayment)
}

func statusFromBookingError(err error) int {
	switch {
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, ridedomain.ErrRideNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrPaymentProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ridedomain.ErrInsufficientSeats), errors.Is(err, domain.ErrConflictingOperation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, ridedomain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ridedomain.ErrNotRideDriver):
		return http.StatusForbidden
	case errors.Is(err, ridedomain.ErrInvalidSeatCount), errors.Is(err, domain.ErrRefundExceedsCapture):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
