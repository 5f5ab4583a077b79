package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, map[string]interface{}) {}
func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, map[string]interface{}) {}
func (nopLogger) Trace(context.Context, string, map[string]interface{}) {}

func newTestStore(t *testing.T, seats int) (*InMemoryRideStore, domain.Ride) {
	t.Helper()

	store := NewInMemoryRideStore(nopLogger{})
	ride := domain.Ride{
		ID:             "ride-1",
		DriverID:       "driver-1",
		TotalSeats:     seats,
		AvailableSeats: seats,
		PricePerSeat:   2500,
		Status:         domain.RideStatusScheduled,
		DepartureTime:  time.Now().Add(24 * time.Hour),
	}
	if err := store.Save(context.Background(), ride); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return store, ride
}

func TestReserveDecrementsAvailableSeats(t *testing.T) {
	store, ride := newTestStore(t, 4)
	ctx := context.Background()

	reservation, err := store.Reserve(ctx, ride.ID, "booking-1", 3)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reservation.State != domain.ReservationStateHeld {
		t.Errorf("reservation state = %q, want %q", reservation.State, domain.ReservationStateHeld)
	}

	got, err := store.FindByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.AvailableSeats != 1 {
		t.Errorf("AvailableSeats = %d, want 1", got.AvailableSeats)
	}
}

func TestReserveRejectsInsufficientSeats(t *testing.T) {
	store, ride := newTestStore(t, 2)

	if _, err := store.Reserve(context.Background(), ride.ID, "booking-1", 3); !errors.Is(err, domain.ErrInsufficientSeats) {
		t.Fatalf("Reserve error = %v, want ErrInsufficientSeats", err)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	store, ride := newTestStore(t, 5)
	ctx := context.Background()

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.Reserve(ctx, ride.ID, fmt.Sprintf("booking-%d", n), 1)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrInsufficientSeats) {
				t.Errorf("Reserve error = %v, want ErrInsufficientSeats", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 5 {
		t.Errorf("succeeded = %d, want 5", succeeded)
	}

	got, err := store.FindByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.AvailableSeats != 0 {
		t.Errorf("AvailableSeats = %d, want 0", got.AvailableSeats)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store, ride := newTestStore(t, 4)
	ctx := context.Background()

	if _, err := store.Reserve(ctx, ride.ID, "booking-1", 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}

	if err := store.Release(ctx, "booking-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := store.Release(ctx, "booking-1"); err != nil {
		t.Fatalf("Release (repeat): %v", err)
	}

	got, err := store.FindByID(ctx, ride.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.AvailableSeats != 4 {
		t.Errorf("AvailableSeats = %d, want 4", got.AvailableSeats)
	}
}

func TestConfirmMarksReservation(t *testing.T) {
	store, ride := newTestStore(t, 4)
	ctx := context.Background()

	if _, err := store.Reserve(ctx, ride.ID, "booking-1", 1); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := store.Confirm(ctx, "booking-1"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	reservation, ok := store.ReservationByBooking("booking-1")
	if !ok {
		t.Fatal("reservation not found")
	}
	if reservation.State != domain.ReservationStateConfirmed {
		t.Errorf("reservation state = %q, want %q", reservation.State, domain.ReservationStateConfirmed)
	}
}

func TestConfirmUnknownReservation(t *testing.T) {
	store, _ := newTestStore(t, 4)

	if err := store.Confirm(context.Background(), "missing"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("Confirm error = %v, want ErrReservationNotFound", err)
	}
}

func TestUpdateStatusRequiresExpectedState(t *testing.T) {
	store, ride := newTestStore(t, 4)
	ctx := context.Background()

	if err := store.UpdateStatus(ctx, ride.ID, domain.RideStatusScheduled, domain.RideStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	err := store.UpdateStatus(ctx, ride.ID, domain.RideStatusScheduled, domain.RideStatusInProgress)
	if !errors.Is(err, domain.ErrConflictingOperation) {
		t.Fatalf("UpdateStatus error = %v, want ErrConflictingOperation", err)
	}
}

func TestReserveRequiresScheduledRide(t *testing.T) {
	store, ride := newTestStore(t, 4)
	ctx := context.Background()

	if err := store.UpdateStatus(ctx, ride.ID, domain.RideStatusScheduled, domain.RideStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if _, err := store.Reserve(ctx, ride.ID, "booking-1", 1); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Reserve error = %v, want ErrInvalidTransition", err)
	}
}
