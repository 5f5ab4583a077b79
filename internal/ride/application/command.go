package application

import (
	"time"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// PublishRideData contém os dados necessários para publicar uma carona.
type PublishRideData struct {
	DriverID      string    `json:"driver_id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	TotalSeats    int       `json:"total_seats"`
	PricePerSeat  int64     `json:"price_per_seat"`
}

type publishRideCommand struct {
	data PublishRideData
}

func (c publishRideCommand) CommandName() string {
	return "PublishRide"
}

func (c publishRideCommand) Payload() PublishRideData {
	return c.data
}

func NewPublishRideCommand(data PublishRideData) domain.Command[PublishRideData] {
	return publishRideCommand{data: data}
}

// RideActionData é o payload compartilhado pelas transições de status
// da carona (start, complete, cancel).
type RideActionData struct {
	RideID         string `json:"ride_id"`
	DriverID       string `json:"driver_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type rideActionCommand struct {
	name string
	data RideActionData
}

func (c rideActionCommand) CommandName() string {
	return c.name
}

func (c rideActionCommand) Payload() RideActionData {
	return c.data
}

func NewStartRideCommand(data RideActionData) domain.Command[RideActionData] {
	return rideActionCommand{name: "StartRide", data: data}
}

func NewCompleteRideCommand(data RideActionData) domain.Command[RideActionData] {
	return rideActionCommand{name: "CompleteRide", data: data}
}

func NewCancelRideCommand(data RideActionData) domain.Command[RideActionData] {
	return rideActionCommand{name: "CancelRide", data: data}
}
