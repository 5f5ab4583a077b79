package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

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
	pkgInfra "github.com/mateusmacedo/go-rideshare/pkg/infrastructure"
	watermillLogAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/watermill/adapter"
	zapAdapter "github.com/mateusmacedo/go-rideshare/pkg/infrastructure/zaplogger/adapter"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger, err := zapAdapter.NewZapAppLogger()
	if err != nil {
		panic(err)
	}

	idGenerator := func() string {
		return uuid.New().String()
	}

	captureTrigger := bookingApp.ParseCaptureTrigger(os.Getenv("CAPTURE_TRIGGER"))

	// Eventos do ciclo de vida em processo; o pub/sub em memória serve o
	// push de notificações por tópico de usuário.
	wmLogger := watermillLogAdapter.NewWatermillLoggerAdapter(appLogger)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	eventBus := pkgInfra.NewSimpleEventBus[pkgDomain.Event[event.Data], event.Data](appLogger)

	var (
		rideRepo         rideDomain.RideRepository
		seatLedger       rideDomain.SeatLedger
		bookingRepo      bookingDomain.BookingRepository
		operationRepo    bookingDomain.PaymentOperationRepository
		notificationRepo notificationDomain.NotificationRepository
	)

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			appLogger.Error(ctx, "Erro ao conectar no banco de dados", map[string]interface{}{
				"error": err,
			})
			panic(err)
		}

		if rideRepo, err = rideInfra.NewGormRideRepository(db, appLogger); err != nil {
			panic(err)
		}
		if seatLedger, err = rideInfra.NewGormSeatLedger(db, appLogger); err != nil {
			panic(err)
		}
		if bookingRepo, err = bookingInfra.NewGormBookingRepository(db, appLogger); err != nil {
			panic(err)
		}
		if operationRepo, err = bookingInfra.NewGormPaymentOperationRepository(db, appLogger); err != nil {
			panic(err)
		}
		if notificationRepo, err = notificationInfra.NewGormNotificationRepository(db, appLogger); err != nil {
			panic(err)
		}
	} else {
		store := rideInfra.NewInMemoryRideStore(appLogger)
		rideRepo = store
		seatLedger = store
		bookingRepo = bookingInfra.NewInMemoryBookingRepository()
		operationRepo = bookingInfra.NewInMemoryPaymentOperationRepository()
		notificationRepo = notificationInfra.NewInMemoryNotificationRepository()
	}

	provider := bookingInfra.NewInMemoryPaymentProvider(idGenerator)
	gateway := bookingInfra.NewIdempotentPaymentGateway(operationRepo, provider, appLogger)
	pusher := notificationInfra.NewWatermillPusher(pubSub, appLogger)

	createBookingBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[bookingApp.CreateBookingData], bookingApp.CreateBookingData](appLogger)
	bookingActionBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[bookingApp.BookingActionData], bookingApp.BookingActionData](appLogger)
	bookingQueryBus := pkgInfra.NewSimpleQueryBus[pkgDomain.Query[bookingApp.FindBookingData], bookingApp.FindBookingData, bookingDomain.Booking](appLogger)

	publishRideBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[rideApp.PublishRideData], rideApp.PublishRideData](appLogger)
	rideActionBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[rideApp.RideActionData], rideApp.RideActionData](appLogger)
	rideQueryBus := pkgInfra.NewSimpleQueryBus[pkgDomain.Query[rideApp.FindRideData], rideApp.FindRideData, rideDomain.Ride](appLogger)

	ackBus := pkgInfra.NewSimpleCommandBus[pkgDomain.Command[notificationApp.AcknowledgeNotificationsData], notificationApp.AcknowledgeNotificationsData](appLogger)
	notificationQueryBus := pkgInfra.NewSimpleQueryBus[pkgDomain.Query[notificationApp.PendingNotificationsData], notificationApp.PendingNotificationsData, []notificationDomain.Notification](appLogger)

	bookingSlice := booking.NewBookingSlice(
		createBookingBus,
		bookingActionBus,
		bookingQueryBus,
		idGenerator,
		appLogger,
		eventBus,
		bookingRepo,
		rideRepo,
		seatLedger,
		gateway,
		captureTrigger,
	)

	rideSlice := ride.NewRideSlice(
		publishRideBus,
		rideActionBus,
		rideQueryBus,
		idGenerator,
		appLogger,
		eventBus,
		rideRepo,
		bookingSlice.Lifecycle(),
	)

	notificationSlice := notification.NewNotificationSlice(
		ackBus,
		notificationQueryBus,
		appLogger,
		eventBus,
		notificationRepo,
		pusher,
	)

	router := chi.NewRouter()
	rideSlice.RegisterRoutes(router)
	bookingSlice.RegisterRoutes(router)
	notificationSlice.RegisterRoutes(router)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		appLogger.Info(ctx, "Sinal capturado", map[string]interface{}{"signal": sig})
		cancel()
	}()

	serverAddress := os.Getenv("HTTP_ADDR")
	if serverAddress == "" {
		serverAddress = ":8080"
	}
	server := &http.Server{
		Addr:    serverAddress,
		Handler: router,
	}

	go func() {
		appLogger.Info(ctx, "Server starting on:"+serverAddress, nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error(ctx, "Erro ao iniciar o servidor", map[string]interface{}{
				"error": err,
			})
		}
	}()

	<-ctx.Done()
	appLogger.Info(ctx, "Encerrando servidor...", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(context.Background(), "Erro ao encerrar servidor", map[string]interface{}{
			"error": err,
		})
	}

	appLogger.Info(context.Background(), "Servidor encerrado", nil)
}
