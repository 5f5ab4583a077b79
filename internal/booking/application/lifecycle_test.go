package application_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/booking/application"
	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	bookingInfra "github.com/mateusmacedo/go-rideshare/internal/booking/infrastructure"
	ridedomain "github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	rideInfra "github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, map[string]interface{}) {}
func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, map[string]interface{}) {}
func (nopLogger) Trace(context.Context, string, map[string]interface{}) {}

// recordingEventBus guarda os eventos publicados para inspeção.
type recordingEventBus struct {
	mu     sync.Mutex
	events []pkgDomain.Event[event.Data]
}

func (b *recordingEventBus) RegisterHandler(string, pkgApp.EventHandler[pkgDomain.Event[event.Data], event.Data]) {
}

func (b *recordingEventBus) Publish(_ context.Context, evt pkgDomain.Event[event.Data]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
	return nil
}

func (b *recordingEventBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.events))
	for _, evt := range b.events {
		names = append(names, evt.EventName())
	}
	return names
}

type fixture struct {
	lifecycle *application.Lifecycle
	store     *rideInfra.InMemoryRideStore
	bookings  *bookingInfra.InMemoryBookingRepository
	provider  *bookingInfra.InMemoryPaymentProvider
	events    *recordingEventBus
	ride      ridedomain.Ride
}

func newFixture(t *testing.T, trigger application.CaptureTrigger) *fixture {
	t.Helper()

	logger := nopLogger{}
	store := rideInfra.NewInMemoryRideStore(logger)
	bookings := bookingInfra.NewInMemoryBookingRepository()
	operations := bookingInfra.NewInMemoryPaymentOperationRepository()

	var seq int64
	idGen := func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt64(&seq, 1))
	}

	provider := bookingInfra.NewInMemoryPaymentProvider(idGen)
	gateway := bookingInfra.NewIdempotentPaymentGateway(operations, provider, logger)
	events := &recordingEventBus{}

	lifecycle := application.NewLifecycle(bookings, store, store, gateway, events, idGen, logger, trigger)

	ride := ridedomain.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		TotalSeats:     3,
		AvailableSeats: 3,
		PricePerSeat:   2500,
		Status:         ridedomain.RideStatusScheduled,
		DepartureTime:  time.Now().Add(24 * time.Hour),
	}
	if err := store.Save(context.Background(), ride); err != nil {
		t.Fatalf("Save ride: %v", err)
	}

	return &fixture{
		lifecycle: lifecycle,
		store:     store,
		bookings:  bookings,
		provider:  provider,
		events:    events,
		ride:      ride,
	}
}

func (f *fixture) createBooking(t *testing.T, seats int, methodRef, key string) domain.Booking {
	t.Helper()

	booking, err := f.lifecycle.Create(context.Background(), application.CreateBookingData{
		RideID:           f.ride.ID,
		RiderID:          "rider-1",
		Seats:            seats,
		PaymentMethodRef: methodRef,
		IdempotencyKey:   key,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return booking
}

func (f *fixture) availableSeats(t *testing.T) int {
	t.Helper()

	ride, err := f.store.FindByID(context.Background(), f.ride.ID)
	if err != nil {
		t.Fatalf("FindByID ride: %v", err)
	}
	return ride.AvailableSeats
}

func TestCreateReservesSeatsAndAuthorizes(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	booking := f.createBooking(t, 2, "card-tok", "key-1")

	if booking.BookingStatus != domain.BookingStatusPending {
		t.Errorf("BookingStatus = %q, want pending", booking.BookingStatus)
	}
	if booking.PaymentStatus != domain.PaymentStatusAuthorized {
		t.Errorf("PaymentStatus = %q, want authorized", booking.PaymentStatus)
	}
	if booking.Amount != 5000 {
		t.Errorf("Amount = %d, want 5000", booking.Amount)
	}
	if booking.PaymentIntentRef == "" {
		t.Error("PaymentIntentRef is empty")
	}
	if got := f.availableSeats(t); got != 1 {
		t.Errorf("AvailableSeats = %d, want 1", got)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	first := f.createBooking(t, 2, "card-tok", "key-1")
	second := f.createBooking(t, 2, "card-tok", "key-1")

	if first.ID != second.ID {
		t.Errorf("repeated create returned booking %q, want %q", second.ID, first.ID)
	}
	if got := f.availableSeats(t); got != 1 {
		t.Errorf("AvailableSeats = %d, want 1 (seats decremented once)", got)
	}
}

func TestCreateDeclinedReleasesSeats(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	_, err := f.lifecycle.Create(context.Background(), application.CreateBookingData{
		RideID:           f.ride.ID,
		RiderID:          "rider-1",
		Seats:            2,
		PaymentMethodRef: "declined-card",
		IdempotencyKey:   "key-1",
	})
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("Create error = %v, want ErrPaymentDeclined", err)
	}

	if got := f.availableSeats(t); got != 3 {
		t.Errorf("AvailableSeats = %d, want 3 (compensation released seats)", got)
	}
}

func TestCreateUnknownRide(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	_, err := f.lifecycle.Create(context.Background(), application.CreateBookingData{
		RideID:  "missing",
		RiderID: "rider-1",
		Seats:   1,
	})
	if !errors.Is(err, ridedomain.ErrRideNotFound) {
		t.Fatalf("Create error = %v, want ErrRideNotFound", err)
	}
}

func TestConcurrentCreatesNeverOversell(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.lifecycle.Create(context.Background(), application.CreateBookingData{
				RideID:           f.ride.ID,
				RiderID:          fmt.Sprintf("rider-%d", n),
				Seats:            1,
				PaymentMethodRef: "card-tok",
				IdempotencyKey:   fmt.Sprintf("key-%d", n),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ridedomain.ErrInsufficientSeats) {
				t.Errorf("Create error = %v, want ErrInsufficientSeats", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}
	if got := f.availableSeats(t); got != 0 {
		t.Errorf("AvailableSeats = %d, want 0", got)
	}
}

func TestConcurrentDuplicateCreatesShareOneBooking(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	const attempts = 5
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[string]bool)
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			booking, err := f.lifecycle.Create(context.Background(), application.CreateBookingData{
				RideID:           f.ride.ID,
				RiderID:          "rider-1",
				Seats:            1,
				PaymentMethodRef: "card-tok",
				IdempotencyKey:   "dup-key",
			})
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			mu.Lock()
			ids[booking.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != 1 {
		t.Fatalf("distinct bookings = %d, want 1", len(ids))
	}
	if got := f.availableSeats(t); got != 2 {
		t.Errorf("AvailableSeats = %d, want 2 (a single seat held)", got)
	}
}

func TestAcceptCapturesAndConfirms(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 2, "card-tok", "key-1")

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.BookingStatus != domain.BookingStatusConfirmed {
		t.Errorf("BookingStatus = %q, want confirmed", got.BookingStatus)
	}
	if got.PaymentStatus != domain.PaymentStatusCaptured {
		t.Errorf("PaymentStatus = %q, want captured", got.PaymentStatus)
	}

	reservation, ok := f.store.ReservationByBooking(booking.ID)
	if !ok {
		t.Fatal("reservation not found")
	}
	if reservation.State != ridedomain.ReservationStateConfirmed {
		t.Errorf("reservation state = %q, want confirmed", reservation.State)
	}
}

func TestAcceptRequiresDriver(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 1, "card-tok", "key-1")

	err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-2",
	})
	if !errors.Is(err, ridedomain.ErrNotRideDriver) {
		t.Fatalf("Accept error = %v, want ErrNotRideDriver", err)
	}
}

func TestAcceptRequiresAuthorizedHold(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	booking := domain.Booking{
		ID:            "booking-manual",
		RideID:        f.ride.ID,
		RiderID:       "rider-1",
		Seats:         1,
		Amount:        2500,
		BookingStatus: domain.BookingStatusPending,
		PaymentStatus: domain.PaymentStatusFailed,
	}
	if err := f.bookings.Save(context.Background(), booking); err != nil {
		t.Fatalf("Save: %v", err)
	}

	err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Accept error = %v, want ErrInvalidTransition", err)
	}
}

func TestAcceptRecoversExpiredAuthorization(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 1, "card-tok", "key-1")

	f.provider.ExpireAuthorization(booking.PaymentIntentRef)

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusCaptured {
		t.Errorf("PaymentStatus = %q, want captured", got.PaymentStatus)
	}
	if got.PaymentIntentRef == booking.PaymentIntentRef {
		t.Error("expected a new payment intent after reauthorization")
	}
}

func TestRejectRefundsAndReleasesSeats(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 2, "card-tok", "key-1")

	if err := f.lifecycle.Reject(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.BookingStatus != domain.BookingStatusRejected {
		t.Errorf("BookingStatus = %q, want rejected", got.BookingStatus)
	}
	if got.PaymentStatus != domain.PaymentStatusRefunded {
		t.Errorf("PaymentStatus = %q, want refunded", got.PaymentStatus)
	}
	if got.RefundAmount != 5000 {
		t.Errorf("RefundAmount = %d, want 5000", got.RefundAmount)
	}
	if seats := f.availableSeats(t); seats != 3 {
		t.Errorf("AvailableSeats = %d, want 3", seats)
	}
}

func TestCancelBeforeRideRefundsFull(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 2, "card-tok", "key-1")

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if err := f.lifecycle.Cancel(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
	}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.BookingStatus != domain.BookingStatusCancelled {
		t.Errorf("BookingStatus = %q, want cancelled", got.BookingStatus)
	}
	if got.PaymentStatus != domain.PaymentStatusRefunded {
		t.Errorf("PaymentStatus = %q, want refunded", got.PaymentStatus)
	}
	if got.RefundAmount != 5000 {
		t.Errorf("RefundAmount = %d, want full 5000", got.RefundAmount)
	}
	if seats := f.availableSeats(t); seats != 3 {
		t.Errorf("AvailableSeats = %d, want 3", seats)
	}
}

func TestCancelMidRideRefundsHalf(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 2, "card-tok", "key-1")

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := f.store.UpdateStatus(context.Background(), f.ride.ID, ridedomain.RideStatusScheduled, ridedomain.RideStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if err := f.lifecycle.Cancel(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
	}); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusPartiallyRefunded {
		t.Errorf("PaymentStatus = %q, want partially_refunded", got.PaymentStatus)
	}
	if got.RefundAmount != 2500 {
		t.Errorf("RefundAmount = %d, want half 2500", got.RefundAmount)
	}
}

func TestCancelTerminalBooking(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 1, "card-tok", "key-1")

	if err := f.lifecycle.Reject(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
	}); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	err := f.lifecycle.Cancel(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Cancel error = %v, want ErrInvalidTransition", err)
	}
}

func TestCompleteCapturesOnCompleteTrigger(t *testing.T) {
	f := newFixture(t, application.CaptureOnComplete)
	booking := f.createBooking(t, 1, "card-tok", "key-1")

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	confirmed, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if confirmed.PaymentStatus != domain.PaymentStatusAuthorized {
		t.Fatalf("PaymentStatus after accept = %q, want authorized", confirmed.PaymentStatus)
	}

	if err := f.lifecycle.Complete(context.Background(), booking.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.BookingStatus != domain.BookingStatusCompleted {
		t.Errorf("BookingStatus = %q, want completed", got.BookingStatus)
	}
	if got.PaymentStatus != domain.PaymentStatusCaptured {
		t.Errorf("PaymentStatus = %q, want captured", got.PaymentStatus)
	}
}

func TestRetryPaymentReauthorizes(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	booking := domain.Booking{
		ID:               "booking-failed",
		RideID:           f.ride.ID,
		RiderID:          "rider-1",
		Seats:            1,
		Amount:           2500,
		PaymentMethodRef: "declined-card",
		BookingStatus:    domain.BookingStatusPending,
		PaymentStatus:    domain.PaymentStatusFailed,
	}
	if err := f.bookings.Save(context.Background(), booking); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := f.lifecycle.RetryPayment(context.Background(), application.BookingActionData{
		BookingID:        booking.ID,
		PaymentMethodRef: "card-tok-new",
		IdempotencyKey:   "retry-1",
	}); err != nil {
		t.Fatalf("RetryPayment: %v", err)
	}

	got, err := f.bookings.FindByID(context.Background(), booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusAuthorized {
		t.Errorf("PaymentStatus = %q, want authorized", got.PaymentStatus)
	}
	if got.PaymentIntentRef == "" {
		t.Error("PaymentIntentRef is empty after retry")
	}
}

func TestCompleteForRideClosesConfirmedBookings(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	first := f.createBooking(t, 1, "card-tok", "key-1")
	second := f.createBooking(t, 1, "card-tok", "key-2")

	for _, id := range []string{first.ID, second.ID} {
		if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
			BookingID: id,
			ActorID:   "driver-1",
		}); err != nil {
			t.Fatalf("Accept %s: %v", id, err)
		}
	}

	if err := f.lifecycle.CompleteForRide(context.Background(), f.ride.ID); err != nil {
		t.Fatalf("CompleteForRide: %v", err)
	}

	for _, id := range []string{first.ID, second.ID} {
		got, err := f.bookings.FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("FindByID %s: %v", id, err)
		}
		if got.BookingStatus != domain.BookingStatusCompleted {
			t.Errorf("booking %s status = %q, want completed", id, got.BookingStatus)
		}
	}
}

func TestCancelForRideRefundsEveryLiveBooking(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)

	pending := f.createBooking(t, 1, "card-tok", "key-1")
	confirmed := f.createBooking(t, 1, "card-tok", "key-2")
	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: confirmed.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if err := f.lifecycle.CancelForRide(context.Background(), f.ride.ID, "ride_cancelled"); err != nil {
		t.Fatalf("CancelForRide: %v", err)
	}

	for _, id := range []string{pending.ID, confirmed.ID} {
		got, err := f.bookings.FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("FindByID %s: %v", id, err)
		}
		if got.BookingStatus != domain.BookingStatusCancelled {
			t.Errorf("booking %s status = %q, want cancelled", id, got.BookingStatus)
		}
		if got.RefundAmount != 2500 {
			t.Errorf("booking %s refund = %d, want 2500", id, got.RefundAmount)
		}
	}

	if seats := f.availableSeats(t); seats != 3 {
		t.Errorf("AvailableSeats = %d, want 3", seats)
	}
}

func TestLifecycleEventsArePublished(t *testing.T) {
	f := newFixture(t, application.CaptureOnAccept)
	booking := f.createBooking(t, 1, "card-tok", "key-1")

	if err := f.lifecycle.Accept(context.Background(), application.BookingActionData{
		BookingID: booking.ID,
		ActorID:   "driver-1",
	}); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if err := f.lifecycle.Complete(context.Background(), booking.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	want := []string{event.BookingCreated, event.BookingAccepted, event.BookingCompleted}
	got := f.events.names()
	if len(got) != len(want) {
		t.Fatalf("published events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
