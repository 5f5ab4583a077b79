package domain

import (
	"context"
	"time"
)

type PaymentOperationType string

const (
	PaymentOperationTypeAuthorize PaymentOperationType = "authorize"
	PaymentOperationTypeCapture   PaymentOperationType = "capture"
	PaymentOperationTypeRefund    PaymentOperationType = "refund"
)

type PaymentOperationResult string

const (
	PaymentOperationResultPending PaymentOperationResult = "pending"
	PaymentOperationResultSuccess PaymentOperationResult = "success"
	PaymentOperationResultFailed  PaymentOperationResult = "failed"
)

// PaymentOperation é o registro de idempotência do gateway: a mesma
// chave submetida duas vezes resolve em no máximo uma chamada externa
// bem-sucedida. Operações failed guardam a classificação da falha para
// que repetições recebam a mesma resposta sem nova chamada externa.
type PaymentOperation struct {
	IdempotencyKey string                 `json:"idempotencyKey" gorm:"primaryKey"`
	OperationType  PaymentOperationType   `json:"operationType"`
	BookingID      string                 `json:"bookingId" gorm:"index"`
	ExternalRef    string                 `json:"externalRef,omitempty"`
	Amount         int64                  `json:"amount"`
	Result         PaymentOperationResult `json:"result"`
	FailureReason  string                 `json:"failureReason,omitempty"`
	Attempts       int                    `json:"attempts"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

type PaymentOperationRepository interface {
	// FindByKey retorna ErrOperationNotFound quando a chave nunca foi usada.
	FindByKey(ctx context.Context, key string) (PaymentOperation, error)
	Save(ctx context.Context, op PaymentOperation) error
	Update(ctx context.Context, op PaymentOperation) error
}

// PaymentGateway é a fachada idempotente e com retry sobre o provedor
// externo. Toda operação recebe uma chave de idempotência do chamador;
// chamadas repetidas são respondidas pelo registro de PaymentOperation
// antes de qualquer chamada externa.
type PaymentGateway interface {
	Authorize(ctx context.Context, bookingID string, amount int64, paymentMethodRef, idempotencyKey string) (string, error)
	Capture(ctx context.Context, bookingID, externalRef, idempotencyKey string) error
	Refund(ctx context.Context, bookingID, externalRef string, amount int64, idempotencyKey string) (int64, error)

	// RetryAuthorization cria uma nova autorização para o booking sem
	// rederivar estado; quem decide o que fazer com o resultado é a
	// máquina de estados.
	RetryAuthorization(ctx context.Context, bookingID string, amount int64, newPaymentMethodRef, idempotencyKey string) (string, error)
}

// PaymentProvider é o processador externo cru. As implementações devem
// classificar falhas nos erros sentinela do pacote (declined vs.
// transiente vs. autorização expirada).
type PaymentProvider interface {
	Authorize(ctx context.Context, amount int64, paymentMethodRef string) (string, error)
	Capture(ctx context.Context, externalRef string) error
	Refund(ctx context.Context, externalRef string, amount int64) (int64, error)
}
