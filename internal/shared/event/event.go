package event

import (
	"time"

	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// Audience identifica quem deve receber um evento do marketplace.
type Audience string

const (
	AudienceDriver Audience = "driver"
	AudienceRider  Audience = "rider"
	AudienceBoth   Audience = "both"
)

// Nomes do conjunto fechado de eventos do ciclo de vida.
const (
	BookingCreated    = "BookingCreated"
	BookingAccepted   = "BookingAccepted"
	BookingRejected   = "BookingRejected"
	BookingCancelled  = "BookingCancelled"
	BookingCompleted  = "BookingCompleted"
	PaymentRetried    = "PaymentRetried"
	RideStatusChanged = "RideStatusChanged"
)

// Names lista todos os nomes de eventos publicados pelo marketplace.
func Names() []string {
	return []string{
		BookingCreated,
		BookingAccepted,
		BookingRejected,
		BookingCancelled,
		BookingCompleted,
		PaymentRetried,
		RideStatusChanged,
	}
}

// Data é o payload compartilhado por todos os eventos do marketplace.
// O campo Type repete o nome do evento para que consumidores persistidos
// (notificações) consigam reidratar a variante sem inspecionar o tópico.
type Data struct {
	EventID      string    `json:"event_id"`
	Type         string    `json:"type"`
	Audience     Audience  `json:"audience"`
	BookingID    string    `json:"booking_id,omitempty"`
	RideID       string    `json:"ride_id,omitempty"`
	DriverID     string    `json:"driver_id,omitempty"`
	RiderID      string    `json:"rider_id,omitempty"`
	Seats        int       `json:"seats,omitempty"`
	Amount       int64     `json:"amount,omitempty"`
	RefundAmount int64     `json:"refund_amount,omitempty"`
	RideStatus   string    `json:"ride_status,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type marketplaceEvent struct {
	name string
	data Data
}

func (e marketplaceEvent) EventName() string {
	return e.name
}

func (e marketplaceEvent) Payload() Data {
	return e.data
}

func newEvent(name string, data Data) domain.Event[Data] {
	data.Type = name
	if data.OccurredAt.IsZero() {
		data.OccurredAt = time.Now().UTC()
	}
	return marketplaceEvent{name: name, data: data}
}

func NewBookingCreated(data Data) domain.Event[Data] {
	return newEvent(BookingCreated, data)
}

func NewBookingAccepted(data Data) domain.Event[Data] {
	return newEvent(BookingAccepted, data)
}

func NewBookingRejected(data Data) domain.Event[Data] {
	return newEvent(BookingRejected, data)
}

func NewBookingCancelled(data Data) domain.Event[Data] {
	return newEvent(BookingCancelled, data)
}

func NewBookingCompleted(data Data) domain.Event[Data] {
	return newEvent(BookingCompleted, data)
}

func NewPaymentRetried(data Data) domain.Event[Data] {
	return newEvent(PaymentRetried, data)
}

func NewRideStatusChanged(data Data) domain.Event[Data] {
	return newEvent(RideStatusChanged, data)
}
