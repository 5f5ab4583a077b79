package application

import (
	"github.com/mateusmacedo/go-rideshare/pkg/domain"
)

// FindBookingData localiza um booking pelo id ou, na ausência dele,
// pela chave de idempotência usada na criação.
type FindBookingData struct {
	BookingID      string `json:"booking_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

type findBookingQuery struct {
	data FindBookingData
}

func (q findBookingQuery) QueryName() string {
	return "FindBooking"
}

func (q findBookingQuery) Payload() FindBookingData {
	return q.data
}

func NewFindBookingQuery(data FindBookingData) domain.Query[FindBookingData] {
	return findBookingQuery{data: data}
}
