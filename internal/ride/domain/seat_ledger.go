package domain

import (
	"context"
	"time"
)

type ReservationState string

const (
	ReservationStateHeld      ReservationState = "held"
	ReservationStateReleased  ReservationState = "released"
	ReservationStateConfirmed ReservationState = "confirmed"
)

// SeatReservation é o lançamento interno do ledger de assentos.
// Existe exatamente uma reserva por booking; held e confirmed contam
// contra a capacidade da carona, released devolve os assentos ao pool.
type SeatReservation struct {
	BookingID string           `json:"bookingId" gorm:"primaryKey"`
	RideID    string           `json:"rideId" gorm:"index"`
	Seats     int              `json:"seats"`
	State     ReservationState `json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// SeatLedger é a única porta de mutação dos contadores de assentos.
// Reserve precisa ser atômico frente a reservas concorrentes na mesma
// carona: a checagem de disponibilidade e o decremento são um único
// passo condicional, nunca read-then-write.
type SeatLedger interface {
	Reserve(ctx context.Context, rideID, bookingID string, seats int) (SeatReservation, error)

	// Release devolve os assentos ao pool; liberar uma reserva já
	// liberada é um no-op.
	Release(ctx context.Context, bookingID string) error

	// Confirm marca a reserva como comprometida sem alterar o
	// contador, já que held e confirmed ocupam capacidade igualmente.
	Confirm(ctx context.Context, bookingID string) error
}
