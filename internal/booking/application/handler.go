package application

import (
	"context"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type createBookingHandler struct {
	lifecycle *Lifecycle
	logger    pkgApp.AppLogger
}

func (h *createBookingHandler) Handle(ctx context.Context, command pkgDomain.Command[CreateBookingData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	_, err := h.lifecycle.Create(ctx, command.Payload())
	return err
}

func NewCreateBookingHandler(lifecycle *Lifecycle, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[CreateBookingData], CreateBookingData] {
	return &createBookingHandler{lifecycle: lifecycle, logger: logger}
}

type bookingActionHandler struct {
	lifecycle *Lifecycle
	logger    pkgApp.AppLogger
}

func (h *bookingActionHandler) Handle(ctx context.Context, command pkgDomain.Command[BookingActionData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	switch command.CommandName() {
	case "AcceptBooking":
		return h.lifecycle.Accept(ctx, data)
	case "RejectBooking":
		return h.lifecycle.Reject(ctx, data)
	case "CancelBooking":
		return h.lifecycle.Cancel(ctx, data)
	case "RetryPayment":
		return h.lifecycle.RetryPayment(ctx, data)
	default:
		return domain.ErrInvalidTransition
	}
}

func NewBookingActionHandler(lifecycle *Lifecycle, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[BookingActionData], BookingActionData] {
	return &bookingActionHandler{lifecycle: lifecycle, logger: logger}
}

type findBookingHandler struct {
	repository domain.BookingRepository
	logger     pkgApp.AppLogger
}

func (h *findBookingHandler) Handle(ctx context.Context, query pkgDomain.Query[FindBookingData]) (domain.Booking, error) {
	if ctx.Err() != nil {
		return domain.Booking{}, ctx.Err()
	}

	data := query.Payload()
	if data.BookingID != "" {
		return h.repository.FindByID(ctx, data.BookingID)
	}

	return h.repository.FindByIdempotencyKey(ctx, data.IdempotencyKey)
}

func NewFindBookingHandler(repository domain.BookingRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[FindBookingData], FindBookingData, domain.Booking] {
	return &findBookingHandler{repository: repository, logger: logger}
}
