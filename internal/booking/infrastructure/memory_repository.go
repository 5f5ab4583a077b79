package infrastructure

import (
	"context"
	"sync"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
)

// InMemoryBookingRepository guarda bookings em memória para
// desenvolvimento e testes.
type InMemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]domain.Booking
	byKey    map[string]string
}

func NewInMemoryBookingRepository() *InMemoryBookingRepository {
	return &InMemoryBookingRepository{
		bookings: make(map[string]domain.Booking),
		byKey:    make(map[string]string),
	}
}

func (r *InMemoryBookingRepository) Save(ctx context.Context, booking domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.IdempotencyKey != "" {
		if existing, ok := r.byKey[booking.IdempotencyKey]; ok && existing != booking.ID {
			return domain.ErrConflictingOperation
		}
		r.byKey[booking.IdempotencyKey] = booking.ID
	}
	r.bookings[booking.ID] = booking
	return nil
}

func (r *InMemoryBookingRepository) FindByID(ctx context.Context, bookingID string) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[bookingID]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return booking, nil
}

func (r *InMemoryBookingRepository) FindByIdempotencyKey(ctx context.Context, key string) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return r.bookings[id], nil
}

func (r *InMemoryBookingRepository) FindByRideAndStatus(ctx context.Context, rideID string, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[domain.BookingStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Booking
	for _, booking := range r.bookings {
		if booking.RideID == rideID && wanted[booking.BookingStatus] {
			result = append(result, booking)
		}
	}
	return result, nil
}

func (r *InMemoryBookingRepository) Update(ctx context.Context, booking domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; !ok {
		return domain.ErrBookingNotFound
	}
	r.bookings[booking.ID] = booking
	return nil
}

// InMemoryPaymentOperationRepository guarda o registro de idempotência
// em memória.
type InMemoryPaymentOperationRepository struct {
	mu         sync.RWMutex
	operations map[string]domain.PaymentOperation
}

func NewInMemoryPaymentOperationRepository() *InMemoryPaymentOperationRepository {
	return &InMemoryPaymentOperationRepository{
		operations: make(map[string]domain.PaymentOperation),
	}
}

func (r *InMemoryPaymentOperationRepository) FindByKey(ctx context.Context, idempotencyKey string) (domain.PaymentOperation, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentOperation{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	op, ok := r.operations[idempotencyKey]
	if !ok {
		return domain.PaymentOperation{}, domain.ErrOperationNotFound
	}
	return op, nil
}

func (r *InMemoryPaymentOperationRepository) Save(ctx context.Context, op domain.PaymentOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.operations[op.IdempotencyKey] = op
	return nil
}

func (r *InMemoryPaymentOperationRepository) Update(ctx context.Context, op domain.PaymentOperation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.operations[op.IdempotencyKey]; !ok {
		return domain.ErrOperationNotFound
	}
	r.operations[op.IdempotencyKey] = op
	return nil
}
