package application

import "context"

// BookingLifecycle é a porta pela qual o coordenador de caronas propaga
// operações em cascata para os bookings da carona. É implementada pela
// fatia de booking e injetada na composição.
type BookingLifecycle interface {
	// CompleteForRide completa todos os bookings confirmados da carona.
	// Melhor esforço: uma falha de captura em um booking não impede os
	// demais nem a conclusão da carona.
	CompleteForRide(ctx context.Context, rideID string) error

	// CancelForRide cancela todos os bookings não terminais da carona,
	// emitindo os reembolsos correspondentes.
	CancelForRide(ctx context.Context, rideID, reason string) error
}
