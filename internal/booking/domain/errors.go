package domain

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPaymentDeclined é uma falha de negócio não retryável; o
	// booking não pode prosseguir.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrPaymentProviderUnavailable é transiente; o chamador pode
	// repetir com a mesma chave de idempotência.
	ErrPaymentProviderUnavailable = errors.New("payment provider unavailable")

	// ErrCaptureExpired indica que a janela da autorização expirou;
	// recuperável via RetryAuthorization.
	ErrCaptureExpired = errors.New("authorization window expired")

	ErrInvalidTransition    = errors.New("invalid booking transition")
	ErrConflictingOperation = errors.New("conflicting operation on booking")
	ErrRefundExceedsCapture = errors.New("refund exceeds captured amount")
	ErrOperationNotFound    = errors.New("payment operation not found")
)
