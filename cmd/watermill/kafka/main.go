package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
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
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/kafka/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

// Demonstração com eventos do ciclo de vida trafegando por Kafka:
// publica uma carona, cria e aceita um booking e acompanha as
// notificações materializadas a partir dos eventos consumidos.
func main() {
	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	logger := watermill.NewStdLogger(false, false)
	marshaler := kafka.DefaultMarshaler{}

	publisherConfig := kafka.PublisherConfig{
		Brokers:   []string{"localhost:9092"},
		Marshaler: marshaler,
	}

	publisher, err := kafka.NewPublisher(publisherConfig, logger)
	if err != nil {
		log.Fatalf("failed to create Kafka publisher: %v", err)
	}
	defer publisher.Close()

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V1_0_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.ClientID = "rideshare"

	subscriberConfig := kafka.SubscriberConfig{
		Brokers:               []string{"localhost:9092"},
		Unmarshaler:           marshaler,
		ConsumerGroup:         "rideshare_consumer_group",
		OverwriteSaramaConfig: saramaConfig,
		InitializeTopicDetails: &sarama.TopicDetail{
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}

	subscriber, err := kafka.NewSubscriber(subscriberConfig, logger)
	if err != nil {
		log.Fatalf("failed to create Kafka subscriber: %v", err)
	}
	defer subscriber.Close()

	// Inicializa os tópicos de comandos, consultas e eventos se ainda
	// não existirem.
	topics := []string{
		"PublishRide", "StartRide", "CompleteRide", "CancelRide", "FindRide",
		"CreateBooking", "AcceptBooking", "RejectBooking", "CancelBooking", "RetryPayment", "FindBooking",
		"AcknowledgeNotifications", "PendingNotifications",
	}
	topics = append(topics, event.Names()...)
	for _, name := range topics {
		if err := subscriber.SubscribeInitialize(name); err != nil {
			log.Fatalf("failed to initialize Kafka topic %q: %v", name, err)
		}
	}

	eventBus := adapter.NewKafkaEventBus[pkgDomain.Event[event.Data], event.Data](publisher, subscriber, appLogger)

	idGenerator := func() string {
		return uuid.New().String()
	}

	store := rideInfra.NewInMemoryRideStore(appLogger)
	bookingRepo := bookingInfra.NewInMemoryBookingRepository()
	operationRepo := bookingInfra.NewInMemoryPaymentOperationRepository()
	notificationRepo := notificationInfra.NewInMemoryNotificationRepository()

	provider := bookingInfra.NewInMemoryPaymentProvider(idGenerator)
	gateway := bookingInfra.NewIdempotentPaymentGateway(operationRepo, provider, appLogger)

	createBookingBus := adapter.NewKafkaCommandBus[pkgDomain.Command[bookingApp.CreateBookingData], bookingApp.CreateBookingData](publisher, subscriber, appLogger)
	bookingActionBus := adapter.NewKafkaCommandBus[pkgDomain.Command[bookingApp.BookingActionData], bookingApp.BookingActionData](publisher, subscriber, appLogger)
	bookingQueryBus := adapter.NewKafkaQueryBus[pkgDomain.Query[bookingApp.FindBookingData], bookingApp.FindBookingData, bookingDomain.Booking](publisher, subscriber)

	publishRideBus := adapter.NewKafkaCommandBus[pkgDomain.Command[rideApp.PublishRideData], rideApp.PublishRideData](publisher, subscriber, appLogger)
	rideActionBus := adapter.NewKafkaCommandBus[pkgDomain.Command[rideApp.RideActionData], rideApp.RideActionData](publisher, subscriber, appLogger)
	rideQueryBus := adapter.NewKafkaQueryBus[pkgDomain.Query[rideApp.FindRideData], rideApp.FindRideData, rideDomain.Ride](publisher, subscriber)

	ackBus := adapter.NewKafkaCommandBus[pkgDomain.Command[notificationApp.AcknowledgeNotificationsData], notificationApp.AcknowledgeNotificationsData](publisher, subscriber, appLogger)
	notificationQueryBus := adapter.NewKafkaQueryBus[pkgDomain.Query[notificationApp.PendingNotificationsData], notificationApp.PendingNotificationsData, []notificationDomain.Notification](publisher, subscriber)

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
		appLogger, eventBus, notificationRepo, nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	riderID := "rider-1"

	fmt.Println("Publicando carona...")
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

	// Espera o consumo do comando no Kafka.
	time.Sleep(5 * time.Second)

	var rideID string
	for _, r := range store.Rides() {
		rideID = r.ID
	}

	idempotencyKey := idGenerator()
	fmt.Println("Criando booking...")
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

	time.Sleep(5 * time.Second)

	created, err := bookingQueryBus.Dispatch(ctx, bookingApp.NewFindBookingQuery(bookingApp.FindBookingData{
		IdempotencyKey: idempotencyKey,
	}))
	if err != nil {
		fmt.Println("erro ao consultar booking:", err)
		return
	}

	fmt.Println("Aceitando booking...")
	if err := bookingActionBus.Dispatch(ctx, bookingApp.NewAcceptBookingCommand(bookingApp.BookingActionData{
		BookingID: created.ID,
		ActorID:   "driver-1",
	})); err != nil {
		fmt.Println("erro ao aceitar booking:", err)
		return
	}

	// Espera o consumo dos eventos publicados no Kafka.
	time.Sleep(5 * time.Second)

	pending, err := notificationQueryBus.Dispatch(ctx, notificationApp.NewPendingNotificationsQuery(notificationApp.PendingNotificationsData{
		UserID: riderID,
	}))
	if err != nil {
		fmt.Println("erro ao listar notificações:", err)
		return
	}
	for _, n := range pending {
		fmt.Printf("notificação pendente: %s (%s)\n", n.ID, n.EventType)
	}
}
