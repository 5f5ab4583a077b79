package domain

import (
	"context"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// Terminal indica se o booking não admite mais transições.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled || s == BookingStatusCompleted
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusCaptured          PaymentStatus = "captured"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Booking correlaciona dois eixos de estado: BookingStatus (ciclo do
// booking) e PaymentStatus (ciclo do pagamento). Um booking nunca fica
// captured com status cancelled sem o reembolso correspondente
// registrado em RefundAmount. Valores monetários em centavos.
type Booking struct {
	ID               string        `json:"id" gorm:"primaryKey"`
	RideID           string        `json:"rideId" gorm:"index"`
	RiderID          string        `json:"riderId" gorm:"index"`
	Seats            int           `json:"seats"`
	Amount           int64         `json:"amount"`
	RefundAmount     int64         `json:"refundAmount"`
	PaymentIntentRef string        `json:"paymentIntentRef,omitempty"`
	PaymentMethodRef string        `json:"-"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	BookingStatus    BookingStatus `json:"bookingStatus" gorm:"index"`
	IdempotencyKey   string        `json:"-" gorm:"uniqueIndex"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	RefundedAt       *time.Time    `json:"refundedAt,omitempty"`
}

type BookingRepository interface {
	Save(ctx context.Context, booking Booking) error
	FindByID(ctx context.Context, id string) (Booking, error)

	// FindByIdempotencyKey retorna ErrBookingNotFound quando nenhum
	// booking foi criado com a chave.
	FindByIdempotencyKey(ctx context.Context, key string) (Booking, error)

	FindByRideAndStatus(ctx context.Context, rideID string, statuses ...BookingStatus) ([]Booking, error)
	Update(ctx context.Context, booking Booking) error
}
