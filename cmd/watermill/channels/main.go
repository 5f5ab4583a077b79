package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/mateusmacedo/go-rideshare/internal/booking"
	bookingApp "github.com/mateusmacedo/go-rideshare/internal/booking/application"
	bookingDomain "github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	bookingInfra "github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/notification"
	notificationApp "github.com/mateusmacedo/go-rideshare/internal/notification/application"
	notificationDomain "github.com/mateusmacedo/go-rideshare/internal/notification/domain"
	notificationInfra "github.com/mateusmacedo/go-rideshare/internal/notification/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/ride"
	rideApp "github.com/mateusmacedo/go-rideshare/internal/ride/application"
	rideDomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	rideInfra "github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/channels/adapter"
	watermillLogAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

// Demonstração ponta a ponta em memória: publica uma carona, cria um
// booking, aceita, inicia e conclui a carona, acompanhando as
// notificações empurradas pelo tópico do passageiro.
func main() {
	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	logger := watermillLogAdapter.NewWatermillLoggerAdapter(appLogger)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, logger)

	idGenerator := func() string {
		return uuid.New().String()
	}

	store := rideInfra.NewInMemoryRideStore(appLogger)
	bookingRepo := bookingInfra.NewInMemoryBookingRepository()
	operationRepo := bookingInfra.NewInMemoryPaymentOperationRepository()
	notificationRepo := notificationInfra.NewInMemoryNotificationRepository()

	provider := bookingInfra.NewInMemoryPaymentProvider(idGenerator)
	gateway := bookingInfra.NewIdempotentPaymentGateway(operationRepo, provider, appLogger)
	pusher := notificationInfra.NewWatermillPusher(pubSub, appLogger)

	eventBus := adapter.NewWatermillEventBus[pkgDomain.Event[event.Data], event.Data](pubSub, appLogger)

	createBookingBus := adapter.NewWatermillCommandBus[pkgDomain.Command[bookingApp.CreateBookingData], bookingApp.CreateBookingData](pubSub, pubSub, appLogger)
	bookingActionBus := adapter.NewWatermillCommandBus[pkgDomain.Command[bookingApp.BookingActionData], bookingApp.BookingActionData](pubSub, pubSub, appLogger)
	bookingQueryBus := adapter.NewWatermillQueryBus[pkgDomain.Query[bookingApp.FindBookingData], bookingApp.FindBookingData, bookingDomain.Booking](pubSub, pubSub, appLogger)

	publishRideBus := adapter.NewWatermillCommandBus[pkgDomain.Command[rideApp.PublishRideData], rideApp.PublishRideData](pubSub, pubSub, appLogger)
	rideActionBus := adapter.NewWatermillCommandBus[pkgDomain.Command[rideApp.RideActionData], rideApp.RideActionData](pubSub, pubSub, appLogger)
	rideQueryBus := adapter.NewWatermillQueryBus[pkgDomain.Query[rideApp.FindRideData], rideApp.FindRideData, rideDomain.Ride](pubSub, pubSub, appLogger)

	ackBus := adapter.NewWatermillCommandBus[pkgDomain.Command[notificationApp.AcknowledgeNotificationsData], notificationApp.AcknowledgeNotificationsData](pubSub, pubSub, appLogger)
	notificationQueryBus := adapter.NewWatermillQueryBus[pkgDomain.Query[notificationApp.PendingNotificationsData], notificationApp.PendingNotificationsData, []notificationDomain.Notification](pubSub, pubSub, appLogger)

	bookingSlice := booking.NewBookingSlice(
		createBookingBus, bookingActionBus, bookingQueryBus,
		idGenerator, appLogger, eventBus,
		bookingRepo, store, store, gateway,
		bookingApp.CaptureOnAccept,
	)
	ride.NewRideSlice(
		publishRideBus, rideActionBus, rideQueryBus,
		idGenerator, appLogger, eventBus,
		store, bookingSlice.Lifecycle(),
	)
	notification.NewNotificationSlice(
		ackBus, notificationQueryBus,
		appLogger, eventBus, notificationRepo, pusher,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	riderID := "rider-1"

	// Acompanha o tópico de push do passageiro.
	messages, err := pubSub.Subscribe(ctx, "notifications."+riderID)
	if err != nil {
		panic(err)
	}
	go func() {
		for msg := range messages {
			fmt.Println("push para o passageiro:", string(msg.Payload))
			msg.Ack()
		}
	}()

	if err := publishRideBus.Dispatch(ctx, rideApp.NewPublishRideCommand(rideApp.PublishRideData{
		DriverID:      "driver-1",
		Origin:        "Campinas",
		Destination:   "São Paulo",
		DepartureTime: time.Now().Add(24 * time.Hour),
		TotalSeats:    3,
		PricePerSeat:  2500,
	})); err != nil {
		fmt.Println("erro ao publicar carona:", err)
		return
	}

	// Espera o processamento assíncrono do comando.
	time.Sleep(500 * time.Millisecond)

	var rideID string
	for _, r := range store.Rides() {
		rideID = r.ID
	}
	fmt.Println("carona publicada:", rideID)

	idempotencyKey := idGenerator()
	if err := createBookingBus.Dispatch(ctx, bookingApp.NewCreateBookingCommand(bookingApp.CreateBookingData{
		RideID:           rideID,
		RiderID:          riderID,
		Seats:            2,
		PaymentMethodRef: "card-tok-123",
		IdempotencyKey:   idempotencyKey,
	})); err != nil {
		fmt.Println("erro ao criar booking:", err)
		return
	}

	time.Sleep(500 * time.Millisecond)

	created, err := bookingQueryBus.Dispatch(ctx, bookingApp.NewFindBookingQuery(bookingApp.FindBookingData{
		IdempotencyKey: idempotencyKey,
	}))
	if err != nil {
		fmt.Println("erro ao consultar booking:", err)
		return
	}
	fmt.Printf("booking criado: %s (%s/%s)\n", created.ID, created.BookingStatus, created.PaymentStatus)

	if err := bookingActionBus.Dispatch(ctx, bookingApp.NewAcceptBookingCommand(bookingApp.BookingActionData{
		BookingID: created.ID,
		ActorID:   "driver-1",
	})); err != nil {
		fmt.Println("erro ao aceitar booking:", err)
		return
	}

	time.Sleep(500 * time.Millisecond)

	if err := rideActionBus.Dispatch(ctx, rideApp.NewStartRideCommand(rideApp.RideActionData{
		RideID:   rideID,
		DriverID: "driver-1",
	})); err != nil {
		fmt.Println("erro ao iniciar carona:", err)
		return
	}

	time.Sleep(500 * time.Millisecond)

	if err := rideActionBus.Dispatch(ctx, rideApp.NewCompleteRideCommand(rideApp.RideActionData{
		RideID:   rideID,
		DriverID: "driver-1",
	})); err != nil {
		fmt.Println("erro ao concluir carona:", err)
		return
	}

	time.Sleep(time.Second)

	final, err := bookingQueryBus.Dispatch(ctx, bookingApp.NewFindBookingQuery(bookingApp.FindBookingData{
		BookingID: created.ID,
	}))
	if err != nil {
		fmt.Println("erro ao consultar booking final:", err)
		return
	}
	fmt.Printf("booking final: %s (%s/%s)\n", final.ID, final.BookingStatus, final.PaymentStatus)

	// Espera breve para o push das últimas notificações.
	time.Sleep(500 * time.Millisecond)

	pending, err := notificationQueryBus.Dispatch(ctx, notificationApp.NewPendingNotificationsQuery(notificationApp.PendingNotificationsData{
		UserID: riderID,
	}))
	if err != nil {
		fmt.Println("erro ao listar notificações:", err)
		return
	}
	fmt.Println("notificações pendentes do passageiro:", len(pending))
}
