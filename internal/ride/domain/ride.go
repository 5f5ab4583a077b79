package domain

import (
	"context"
	"time"
)

type RideStatus string

const (
	RideStatusScheduled  RideStatus = "scheduled"
	RideStatusInProgress RideStatus = "in-progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

// Terminal indica se o status é imutável.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride representa uma carona publicada por um motorista. AvailableSeats
// é mutado exclusivamente pelo SeatLedger; Status avança exclusivamente
// pelos comandos de ciclo de vida da carona.
type Ride struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	DriverID       string     `json:"driverId" gorm:"index"`
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	DepartureTime  time.Time  `json:"departureTime"`
	TotalSeats     int        `json:"totalSeats"`
	AvailableSeats int        `json:"availableSeats"`
	PricePerSeat   int64      `json:"pricePerSeat"`
	Status         RideStatus `json:"status" gorm:"index"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type RideRepository interface {
	Save(ctx context.Context, ride Ride) error
	FindByID(ctx context.Context, id string) (Ride, error)

	// UpdateStatus move a carona de um status para outro de forma
	// condicional; retorna ErrConflictingOperation quando o status
	// atual não corresponde ao esperado.
	UpdateStatus(ctx context.Context, rideID string, from, to RideStatus) error
}
