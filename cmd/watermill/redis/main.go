package main

import (
	"context"
	"net/http"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/go-chi/chi/v5"
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
	"github.com/mateusmacedo/go-rideshare/pkg/infrastructure/redis/adapter"
	watermillLogAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

// Variante do servidor com comandos, consultas, eventos e push de
// notificações trafegando por Redis Streams.
func main() {
	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	logger := watermillLogAdapter.NewWatermillLoggerAdapter(appLogger)

	redisClient := adapter.NewRedisClient()
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
		Client: redisClient,
	}, logger)
	if err != nil {
		appLogger.Error(ctx, "Erro ao criar publisher", map[string]interface{}{
			"error": err,
		})
		panic(err)
	}
	defer publisher.Close()

	subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "rideshare",
		Consumer:      "rideshare-api",
	}, logger)
	if err != nil {
		appLogger.Error(ctx, "Erro ao criar subscriber", map[string]interface{}{
			"error": err,
		})
		panic(err)
	}
	defer subscriber.Close()

	eventBus := adapter.NewRedisEventBus[pkgDomain.Event[event.Data], event.Data](publisher, subscriber, appLogger)

	idGenerator := func() string {
		return uuid.New().String()
	}

	store := rideInfra.NewInMemoryRideStore(appLogger)
	bookingRepo := bookingInfra.NewInMemoryBookingRepository()
	operationRepo := bookingInfra.NewInMemoryPaymentOperationRepository()
	notificationRepo := notificationInfra.NewInMemoryNotificationRepository()

	provider := bookingInfra.NewInMemoryPaymentProvider(idGenerator)
	gateway := bookingInfra.NewIdempotentPaymentGateway(operationRepo, provider, appLogger)
	pusher := notificationInfra.NewWatermillPusher(publisher, appLogger)

	createBookingBus := adapter.NewRedisCommandBus[pkgDomain.Command[bookingApp.CreateBookingData], bookingApp.CreateBookingData](publisher, subscriber)
	bookingActionBus := adapter.NewRedisCommandBus[pkgDomain.Command[bookingApp.BookingActionData], bookingApp.BookingActionData](publisher, subscriber)
	bookingQueryBus := adapter.NewRedisQueryBus[pkgDomain.Query[bookingApp.FindBookingData], bookingApp.FindBookingData, bookingDomain.Booking](publisher, subscriber, appLogger)

	publishRideBus := adapter.NewRedisCommandBus[pkgDomain.Command[rideApp.PublishRideData], rideApp.PublishRideData](publisher, subscriber)
	rideActionBus := adapter.NewRedisCommandBus[pkgDomain.Command[rideApp.RideActionData], rideApp.RideActionData](publisher, subscriber)
	rideQueryBus := adapter.NewRedisQueryBus[pkgDomain.Query[rideApp.FindRideData], rideApp.FindRideData, rideDomain.Ride](publisher, subscriber, appLogger)

	ackBus := adapter.NewRedisCommandBus[pkgDomain.Command[notificationApp.AcknowledgeNotificationsData], notificationApp.AcknowledgeNotificationsData](publisher, subscriber)
	notificationQueryBus := adapter.NewRedisQueryBus[pkgDomain.Query[notificationApp.PendingNotificationsData], notificationApp.PendingNotificationsData, []notificationDomain.Notification](publisher, subscriber, appLogger)

	bookingSlice := booking.NewBookingSlice(
		createBookingBus, bookingActionBus, bookingQueryBus,
		idGenerator, appLogger, eventBus,
		bookingRepo, store, store, gateway,
		bookingApp.ParseCaptureTrigger(""),
	)
	rideSlice := ride.NewRideSlice(
		publishRideBus, rideActionBus, rideQueryBus,
		idGenerator, appLogger, eventBus,
		store, bookingSlice.Lifecycle(),
	)
	notificationSlice := notification.NewNotificationSlice(
		ackBus, notificationQueryBus,
		appLogger, eventBus, notificationRepo, pusher,
	)

	router := chi.NewRouter()
	rideSlice.RegisterRoutes(router)
	bookingSlice.RegisterRoutes(router)
	notificationSlice.RegisterRoutes(router)

	serverAddress := ":8080"
	appLogger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{
		"address": serverAddress,
	})
	if err := http.ListenAndServe(serverAddress, router); err != nil {
		appLogger.Error(context.Background(), "Failed to start HTTP server", map[string]interface{}{
			"error": err,
		})
	}
}
