package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/ride/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

// InMemoryRideStore implementa RideRepository e SeatLedger sobre mapas.
// Um único mutex cobre caronas e reservas, então o passo condicional de
// reserva é trivialmente atômico por carona.
type InMemoryRideStore struct {
	mu           sync.RWMutex
	rides        map[string]domain.Ride
	reservations map[string]domain.SeatReservation
	logger       pkgApp.AppLogger
}

func NewInMemoryRideStore(logger pkgApp.AppLogger) *InMemoryRideStore {
	return &InMemoryRideStore{
		rides:        make(map[string]domain.Ride),
		reservations: make(map[string]domain.SeatReservation),
		logger:       logger,
	}
}

func (s *InMemoryRideStore) Save(ctx context.Context, ride domain.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rides[ride.ID] = ride
	return nil
}

func (s *InMemoryRideStore) FindByID(ctx context.Context, id string) (domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ride, exists := s.rides[id]
	if !exists {
		return domain.Ride{}, domain.ErrRideNotFound
	}

	return ride, nil
}

func (s *InMemoryRideStore) UpdateStatus(ctx context.Context, rideID string, from, to domain.RideStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ride, exists := s.rides[rideID]
	if !exists {
		return domain.ErrRideNotFound
	}
	if ride.Status != from {
		return domain.ErrConflictingOperation
	}

	ride.Status = to
	ride.UpdatedAt = time.Now().UTC()
	s.rides[rideID] = ride
	return nil
}

func (s *InMemoryRideStore) Reserve(ctx context.Context, rideID, bookingID string, seats int) (domain.SeatReservation, error) {
	if seats < 1 {
		return domain.SeatReservation{}, domain.ErrInvalidSeatCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ride, exists := s.rides[rideID]
	if !exists {
		return domain.SeatReservation{}, domain.ErrRideNotFound
	}
	if ride.Status != domain.RideStatusScheduled {
		return domain.SeatReservation{}, domain.ErrInvalidTransition
	}
	if ride.AvailableSeats < seats {
		return domain.SeatReservation{}, domain.ErrInsufficientSeats
	}

	ride.AvailableSeats -= seats
	ride.UpdatedAt = time.Now().UTC()
	s.rides[rideID] = ride

	now := time.Now().UTC()
	reservation := domain.SeatReservation{
		BookingID: bookingID,
		RideID:    rideID,
		Seats:     seats,
		State:     domain.ReservationStateHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.reservations[bookingID] = reservation

	return reservation, nil
}

func (s *InMemoryRideStore) Release(ctx context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[bookingID]
	if !exists {
		return domain.ErrReservationNotFound
	}

	// Liberar duas vezes é um no-op.
	if reservation.State == domain.ReservationStateReleased {
		return nil
	}

	if ride, ok := s.rides[reservation.RideID]; ok {
		ride.AvailableSeats += reservation.Seats
		if ride.AvailableSeats > ride.TotalSeats {
			ride.AvailableSeats = ride.TotalSeats
		}
		ride.UpdatedAt = time.Now().UTC()
		s.rides[reservation.RideID] = ride
	}

	reservation.State = domain.ReservationStateReleased
	reservation.UpdatedAt = time.Now().UTC()
	s.reservations[bookingID] = reservation

	return nil
}

func (s *InMemoryRideStore) Confirm(ctx context.Context, bookingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, exists := s.reservations[bookingID]
	if !exists || reservation.State == domain.ReservationStateReleased {
		return domain.ErrReservationNotFound
	}

	reservation.State = domain.ReservationStateConfirmed
	reservation.UpdatedAt = time.Now().UTC()
	s.reservations[bookingID] = reservation

	return nil
}

// ReservationByBooking é um auxiliar de inspeção usado em testes.
func (s *InMemoryRideStore) ReservationByBooking(bookingID string) (domain.SeatReservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, exists := s.reservations[bookingID]
	return reservation, exists
}

// Rides retorna um snapshot das caronas armazenadas.
func (s *InMemoryRideStore) Rides() []domain.Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rides := make([]domain.Ride, 0, len(s.rides))
	for _, ride := range s.rides {
		rides = append(rides, ride)
	}
	return rides
}
