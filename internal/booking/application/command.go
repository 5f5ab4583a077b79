package application

import (
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// CreateBookingData contém os dados necessários para reservar assentos
// em uma carona. IdempotencyKey vem do chamador; repetições com a mesma
// chave produzem exatamente um booking e uma autorização.
type CreateBookingData struct {
	RideID           string `json:"ride_id"`
	RiderID          string `json:"rider_id"`
	Seats            int    `json:"seats"`
	PaymentMethodRef string `json:"payment_method_ref"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

type createBookingCommand struct {
	data CreateBookingData
}

func (c createBookingCommand) CommandName() string {
	return "CreateBooking"
}

func (c createBookingCommand) Payload() CreateBookingData {
	return c.data
}

func NewCreateBookingCommand(data CreateBookingData) domain.Command[CreateBookingData] {
	return createBookingCommand{data: data}
}

// BookingActionData é o payload compartilhado pelas transições de um
// booking existente (accept, reject, cancel, retry-payment).
type BookingActionData struct {
	BookingID        string `json:"booking_id"`
	ActorID          string `json:"actor_id,omitempty"`
	Reason           string `json:"reason,omitempty"`
	PaymentMethodRef string `json:"payment_method_ref,omitempty"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

type bookingActionCommand struct {
	name string
	data BookingActionData
}

func (c bookingActionCommand) CommandName() string {
	return c.name
}

func (c bookingActionCommand) Payload() BookingActionData {
	return c.data
}

func NewAcceptBookingCommand(data BookingActionData) domain.Command[BookingActionData] {
	return bookingActionCommand{name: "AcceptBooking", data: data}
}

func NewRejectBookingCommand(data BookingActionData) domain.Command[BookingActionData] {
	return bookingActionCommand{name: "RejectBooking", data: data}
}

func NewCancelBookingCommand(data BookingActionData) domain.Command[BookingActionData] {
	return bookingActionCommand{name: "CancelBooking", data: data}
}

func NewRetryPaymentCommand(data BookingActionData) domain.Command[BookingActionData] {
	return bookingActionCommand{name: "RetryPayment", data: data}
}
