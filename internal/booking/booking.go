package booking

import (
	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	"github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	ridedomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type BookingSlice struct {
	httpHandler *infrastructure.BookingHTTPHandler
	lifecycle   *application.Lifecycle
}

func NewBookingSlice(
	createBus pkgApp.CommandBus[pkgDomain.Command[application.CreateBookingData], application.CreateBookingData],
	actionBus pkgApp.CommandBus[pkgDomain.Command[application.BookingActionData], application.BookingActionData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.FindBookingData], application.FindBookingData, domain.Booking],
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	repository domain.BookingRepository,
	rides ridedomain.RideRepository,
	ledger ridedomain.SeatLedger,
	gateway domain.PaymentGateway,
	capture application.CaptureTrigger,
) *BookingSlice {
	lifecycle := application.NewLifecycle(repository, rides, ledger, gateway, eventBus, idGenerator, logger, capture)

	createBus.RegisterHandler("CreateBooking", application.NewCreateBookingHandler(lifecycle, logger))

	actionHandler := application.NewBookingActionHandler(lifecycle, logger)
	actionBus.RegisterHandler("AcceptBooking", actionHandler)
	actionBus.RegisterHandler("RejectBooking", actionHandler)
	actionBus.RegisterHandler("CancelBooking", actionHandler)
	actionBus.RegisterHandler("RetryPayment", actionHandler)

	queryBus.RegisterHandler("FindBooking", application.NewFindBookingHandler(repository, logger))

	return &BookingSlice{
		httpHandler: infrastructure.NewBookingHTTPHandler(createBus, actionBus, queryBus, idGenerator),
		lifecycle:   lifecycle,
	}
}

// Lifecycle expõe a máquina de estados para a fatia de rides encadear
// completions e cancelamentos em cascata.
func (s *BookingSlice) Lifecycle() *application.Lifecycle {
	return s.lifecycle
}

func (s *BookingSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
