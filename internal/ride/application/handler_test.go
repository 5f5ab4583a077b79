package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	"github.com/mateusmacedo/go-rideshare/internal/ride/infrastructure"
	"github.com/mateusmacedo/go-rideshare/internal/shared/event"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
	pkgDomain "github.com/mateusmacedo/go-rideshare/pkg/domain"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, map[string]interface{}) {}
func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, map[string]interface{}) {}
func (nopLogger) Trace(context.Context, string, map[string]interface{}) {}

type recordingEventBus struct {
	events []pkgDomain.Event[event.Data]
}

func (b *recordingEventBus) RegisterHandler(string, pkgApp.EventHandler[pkgDomain.Event[event.Data], event.Data]) {
}

func (b *recordingEventBus) Publish(_ context.Context, evt pkgDomain.Event[event.Data]) error {
	b.events = append(b.events, evt)
	return nil
}

// fakeBookings registra as cascatas disparadas pelo coordenador.
type fakeBookings struct {
	completed []string
	cancelled []string
	reasons   []string
	err       error
}

func (f *fakeBookings) CompleteForRide(_ context.Context, rideID string) error {
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, rideID)
	return nil
}

func (f *fakeBookings) CancelForRide(_ context.Context, rideID, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, rideID)
	f.reasons = append(f.reasons, reason)
	return nil
}

func newCoordinator(t *testing.T, status domain.RideStatus) (*application.Coordinator, *infrastructure.InMemoryRideStore, *fakeBookings, *recordingEventBus) {
	t.Helper()

	store := infrastructure.NewInMemoryRideStore(nopLogger{})
	bookings := &fakeBookings{}
	events := &recordingEventBus{}

	idGen := func() string {
		return "id"
	}

	coordinator := application.NewCoordinator(store, bookings, events, idGen, nopLogger{})

	ride := domain.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		TotalSeats:     3,
		AvailableSeats: 3,
		Status:         status,
		DepartureTime:  time.Now().Add(24 * time.Hour),
	}
	if err := store.Save(context.Background(), ride); err != nil {
		t.Fatalf("Save: %v", err)
	}

	return coordinator, store, bookings, events
}

func rideStatus(t *testing.T, store *infrastructure.InMemoryRideStore) domain.RideStatus {
	t.Helper()

	ride, err := store.FindByID(context.Background(), "ride-1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return ride.Status
}

func TestStartRideTransitionsToInProgress(t *testing.T) {
	coordinator, store, _, events := newCoordinator(t, domain.RideStatusScheduled)

	if err := coordinator.StartRide(context.Background(), application.RideActionData{
		RideID:   "ride-1",
		DriverID: "driver-1",
	}); err != nil {
		t.Fatalf("StartRide: %v", err)
	}

	if got := rideStatus(t, store); got != domain.RideStatusInProgress {
		t.Errorf("status = %q, want in-progress", got)
	}
	if len(events.events) != 1 || events.events[0].EventName() != event.RideStatusChanged {
		t.Errorf("expected one RideStatusChanged event, got %d", len(events.events))
	}
}

func TestStartRideRejectsOtherDriver(t *testing.T) {
	coordinator, _, _, _ := newCoordinator(t, domain.RideStatusScheduled)

	err := coordinator.StartRide(context.Background(), application.RideActionData{
		RideID:   "ride-1",
		DriverID: "driver-2",
	})
	if !errors.Is(err, domain.ErrNotRideDriver) {
		t.Fatalf("StartRide error = %v, want ErrNotRideDriver", err)
	}
}

func TestCompleteRideCascadesBeforeTransition(t *testing.T) {
	coordinator, store, bookings, _ := newCoordinator(t, domain.RideStatusInProgress)

	if err := coordinator.CompleteRide(context.Background(), application.RideActionData{
		RideID:   "ride-1",
		DriverID: "driver-1",
	}); err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}

	if len(bookings.completed) != 1 {
		t.Fatalf("CompleteForRide calls = %d, want 1", len(bookings.completed))
	}
	if got := rideStatus(t, store); got != domain.RideStatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
}

func TestCompleteRideRequiresInProgress(t *testing.T) {
	coordinator, _, bookings, _ := newCoordinator(t, domain.RideStatusScheduled)

	err := coordinator.CompleteRide(context.Background(), application.RideActionData{
		RideID:   "ride-1",
		DriverID: "driver-1",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("CompleteRide error = %v, want ErrInvalidTransition", err)
	}
	if len(bookings.completed) != 0 {
		t.Errorf("CompleteForRide calls = %d, want 0", len(bookings.completed))
	}
}

func TestCompleteRideStopsWhenCascadeFails(t *testing.T) {
	coordinator, store, bookings, _ := newCoordinator(t, domain.RideStatusInProgress)
	bookings.err = errors.New("storage offline")

	if err := coordinator.CompleteRide(context.Background(), application.RideActionData{
		RideID:   "ride-1",
		DriverID: "driver-1",
	}); err == nil {
		t.Fatal("CompleteRide succeeded, want cascade error")
	}

	if got := rideStatus(t, store); got != domain.RideStatusInProgress {
		t.Errorf("status = %q, want in-progress (no transition on cascade failure)", got)
	}
}

func TestCancelRidePropagatesReason(t *testing.T) {
	coordinator, store, bookings, _ := newCoordinator(t, domain.RideStatusScheduled)

	if err := coordinator.CancelRide(context.Background(), application.RideActionData{
		RideID: "ride-1",
		Reason: "vehicle_breakdown",
	}); err != nil {
		t.Fatalf("CancelRide: %v", err)
	}

	if len(bookings.cancelled) != 1 {
		t.Fatalf("CancelForRide calls = %d, want 1", len(bookings.cancelled))
	}
	if bookings.reasons[0] != "vehicle_breakdown" {
		t.Errorf("reason = %q, want vehicle_breakdown", bookings.reasons[0])
	}
	if got := rideStatus(t, store); got != domain.RideStatusCancelled {
		t.Errorf("status = %q, want cancelled", got)
	}
}

func TestCancelRideDefaultsReason(t *testing.T) {
	coordinator, _, bookings, _ := newCoordinator(t, domain.RideStatusInProgress)

	if err := coordinator.CancelRide(context.Background(), application.RideActionData{
		RideID: "ride-1",
	}); err != nil {
		t.Fatalf("CancelRide: %v", err)
	}

	if bookings.reasons[0] != "ride_cancelled" {
		t.Errorf("reason = %q, want ride_cancelled", bookings.reasons[0])
	}
}

func TestCancelCompletedRide(t *testing.T) {
	coordinator, _, _, _ := newCoordinator(t, domain.RideStatusCompleted)

	err := coordinator.CancelRide(context.Background(), application.RideActionData{
		RideID: "ride-1",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("CancelRide error = %v, want ErrInvalidTransition", err)
	}
}
