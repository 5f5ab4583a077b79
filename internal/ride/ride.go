package ride

import (
	"github.com/go-chi/chi/v5"

	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type RideSlice struct {
	httpHandler *infrastructure.RideHTTPHandler
	coordinator *application.Coordinator
}

func NewRideSlice(
	publishBus pkgApp.CommandBus[pkgDomain.Command[application.PublishRideData], application.PublishRideData],
	actionBus pkgApp.CommandBus[pkgDomain.Command[application.RideActionData], application.RideActionData],
	queryBus pkgApp.QueryBus[pkgDomain.Query[application.FindRideData], application.FindRideData, domain.Ride],
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	repository domain.RideRepository,
	bookings application.BookingLifecycle,
) *RideSlice {
	coordinator := application.NewCoordinator(repository, bookings, eventBus, idGenerator, logger)

	publishBus.RegisterHandler("PublishRide", application.NewPublishRideHandler(repository, eventBus, idGenerator, logger))

	actionHandler := application.NewRideActionHandler(coordinator, logger)
	actionBus.RegisterHandler("StartRide", actionHandler)
	actionBus.RegisterHandler("CompleteRide", actionHandler)
	actionBus.RegisterHandler("CancelRide", actionHandler)

	queryBus.RegisterHandler("FindRide", application.NewFindRideHandler(repository, logger))

	return &RideSlice{
		httpHandler: infrastructure.NewRideHTTPHandler(publishBus, actionBus, queryBus),
		coordinator: coordinator,
	}
}

func (s *RideSlice) RegisterRoutes(router chi.Router) {
	s.httpHandler.RegisterRoutes(router)
}
