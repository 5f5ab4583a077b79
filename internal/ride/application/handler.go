package application

import (
	"context"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type publishRideHandler struct {
	repository  domain.RideRepository
	eventBus    pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data]
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func (h *publishRideHandler) Handle(ctx context.Context, command pkgDomain.Command[PublishRideData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	if data.TotalSeats < 1 {
		return domain.ErrInvalidSeatCount
	}
	if data.PricePerSeat < 0 {
		return domain.ErrInvalidPrice
	}

	now := time.Now().UTC()
	ride := domain.Ride{
		ID:             h.idGenerator(),
		DriverID:       data.DriverID,
		Origin:         data.Origin,
		Destination:    data.Destination,
		DepartureTime:  data.DepartureTime,
		TotalSeats:     data.TotalSeats,
		AvailableSeats: data.TotalSeats,
		PricePerSeat:   data.PricePerSeat,
		Status:         domain.RideStatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.repository.Save(ctx, ride); err != nil {
		pkgApp.LogError(ctx, h.logger, "erro ao salvar carona", err, map[string]interface{}{"ride": ride})
		return err
	}

	h.publishStatus(ctx, ride.ID, ride.DriverID, domain.RideStatusScheduled, "")

	pkgApp.LogInfo(ctx, h.logger, "carona publicada", map[string]interface{}{"ride_id": ride.ID, "seats": ride.TotalSeats})
	return nil
}

func (h *publishRideHandler) publishStatus(ctx context.Context, rideID, driverID string, status domain.RideStatus, reason string) {
	evt := event.NewRideStatusChanged(event.Data{
		EventID:    h.idGenerator(),
		Audience:   event.AudienceDriver,
		RideID:     rideID,
		DriverID:   driverID,
		RideStatus: string(status),
		Reason:     reason,
	})
	if err := h.eventBus.Publish(ctx, evt); err != nil {
		pkgApp.LogError(ctx, h.logger, "erro ao publicar evento de carona", err, map[string]interface{}{"ride_id": rideID})
	}
}

func NewPublishRideHandler(
	repository domain.RideRepository,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) pkgApp.CommandHandler[pkgDomain.Command[PublishRideData], PublishRideData] {
	return &publishRideHandler{
		repository:  repository,
		eventBus:    eventBus,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

// Coordinator sequencia o ciclo de vida da carona e propaga operações
// em cascata para os bookings. O status da carona só avança por aqui.
type Coordinator struct {
	repository  domain.RideRepository
	bookings    BookingLifecycle
	eventBus    pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data]
	idGenerator pkgDomain.IDGenerator[string]
	logger      pkgApp.AppLogger
}

func NewCoordinator(
	repository domain.RideRepository,
	bookings BookingLifecycle,
	eventBus pkgApp.EventBus[pkgDomain.Event[event.Data], event.Data],
	idGenerator pkgDomain.IDGenerator[string],
	logger pkgApp.AppLogger,
) *Coordinator {
	return &Coordinator{
		repository:  repository,
		bookings:    bookings,
		eventBus:    eventBus,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

func (c *Coordinator) StartRide(ctx context.Context, data RideActionData) error {
	ride, err := c.repository.FindByID(ctx, data.RideID)
	if err != nil {
		return err
	}
	if data.DriverID != "" && ride.DriverID != data.DriverID {
		return domain.ErrNotRideDriver
	}
	if ride.Status != domain.RideStatusScheduled {
		return domain.ErrInvalidTransition
	}

	if err := c.repository.UpdateStatus(ctx, ride.ID, domain.RideStatusScheduled, domain.RideStatusInProgress); err != nil {
		return err
	}

	c.publishStatus(ctx, ride, domain.RideStatusInProgress, "")
	pkgApp.LogInfo(ctx, c.logger, "carona iniciada", map[string]interface{}{"ride_id": ride.ID})
	return nil
}

// CompleteRide completa os bookings confirmados antes de marcar a carona
// como concluída. Falhas de captura individuais são registradas pela fatia
// de booking como itens de reconciliação e não bloqueiam a conclusão.
func (c *Coordinator) CompleteRide(ctx context.Context, data RideActionData) error {
	ride, err := c.repository.FindByID(ctx, data.RideID)
	if err != nil {
		return err
	}
	if data.DriverID != "" && ride.DriverID != data.DriverID {
		return domain.ErrNotRideDriver
	}
	if ride.Status != domain.RideStatusInProgress {
		return domain.ErrInvalidTransition
	}

	if err := c.bookings.CompleteForRide(ctx, ride.ID); err != nil {
		pkgApp.LogError(ctx, c.logger, "erro ao completar bookings da carona", err, map[string]interface{}{"ride_id": ride.ID})
		return err
	}

	if err := c.repository.UpdateStatus(ctx, ride.ID, domain.RideStatusInProgress, domain.RideStatusCompleted); err != nil {
		return err
	}

	c.publishStatus(ctx, ride, domain.RideStatusCompleted, "")
	pkgApp.LogInfo(ctx, c.logger, "carona concluída", map[string]interface{}{"ride_id": ride.ID})
	return nil
}

// CancelRide cancela todos os bookings não terminais (reembolsos em
// cascata) antes de marcar a carona como cancelada.
func (c *Coordinator) CancelRide(ctx context.Context, data RideActionData) error {
	ride, err := c.repository.FindByID(ctx, data.RideID)
	if err != nil {
		return err
	}
	if ride.Status != domain.RideStatusScheduled && ride.Status != domain.RideStatusInProgress {
		return domain.ErrInvalidTransition
	}

	reason := data.Reason
	if reason == "" {
		reason = "ride_cancelled"
	}

	if err := c.bookings.CancelForRide(ctx, ride.ID, reason); err != nil {
		pkgApp.LogError(ctx, c.logger, "erro ao cancelar bookings da carona", err, map[string]interface{}{"ride_id": ride.ID})
		return err
	}

	if err := c.repository.UpdateStatus(ctx, ride.ID, ride.Status, domain.RideStatusCancelled); err != nil {
		return err
	}

	c.publishStatus(ctx, ride, domain.RideStatusCancelled, reason)
	pkgApp.LogInfo(ctx, c.logger, "carona cancelada", map[string]interface{}{"ride_id": ride.ID, "reason": reason})
	return nil
}

func (c *Coordinator) publishStatus(ctx context.Context, ride domain.Ride, status domain.RideStatus, reason string) {
	evt := event.NewRideStatusChanged(event.Data{
		EventID:    c.idGenerator(),
		Audience:   event.AudienceBoth,
		RideID:     ride.ID,
		DriverID:   ride.DriverID,
		RideStatus: string(status),
		Reason:     reason,
	})
	if err := c.eventBus.Publish(ctx, evt); err != nil {
		pkgApp.LogError(ctx, c.logger, "erro ao publicar evento de carona", err, map[string]interface{}{"ride_id": ride.ID})
	}
}

type rideActionHandler struct {
	coordinator *Coordinator
	logger      pkgApp.AppLogger
}

func (h *rideActionHandler) Handle(ctx context.Context, command pkgDomain.Command[RideActionData]) error {
	if ctx.Err() != nil {
		pkgApp.LogError(ctx, h.logger, "contexto cancelado", ctx.Err(), nil)
		return ctx.Err()
	}

	data := command.Payload()
	switch command.CommandName() {
	case "StartRide":
		return h.coordinator.StartRide(ctx, data)
	case "CompleteRide":
		return h.coordinator.CompleteRide(ctx, data)
	case "CancelRide":
		return h.coordinator.CancelRide(ctx, data)
	default:
		return domain.ErrInvalidTransition
	}
}

func NewRideActionHandler(coordinator *Coordinator, logger pkgApp.AppLogger) pkgApp.CommandHandler[pkgDomain.Command[RideActionData], RideActionData] {
	return &rideActionHandler{coordinator: coordinator, logger: logger}
}

type findRideHandler struct {
	repository domain.RideRepository
	logger     pkgApp.AppLogger
}

func (h *findRideHandler) Handle(ctx context.Context, query pkgDomain.Query[FindRideData]) (domain.Ride, error) {
	if ctx.Err() != nil {
		return domain.Ride{}, ctx.Err()
	}

	ride, err := h.repository.FindByID(ctx, query.Payload().RideID)
	if err != nil {
		pkgApp.LogError(ctx, h.logger, "erro ao buscar carona", err, map[string]interface{}{"ride_id": query.Payload().RideID})
		return domain.Ride{}, err
	}

	return ride, nil
}

func NewFindRideHandler(repository domain.RideRepository, logger pkgApp.AppLogger) pkgApp.QueryHandler[pkgDomain.Query[FindRideData], FindRideData, domain.Ride] {
	return &findRideHandler{repository: repository, logger: logger}
}
