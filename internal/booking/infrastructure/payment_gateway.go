package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

const (
	maxProviderAttempts = 4
	providerBackoffBase = 50 * time.Millisecond
)

// Códigos persistidos em PaymentOperation.FailureReason para que um
// replay idempotente devolva o mesmo erro classificado da primeira
// execução.
const (
	failureDeclined            = "declined"
	failureProviderUnavailable = "provider_unavailable"
	failureCaptureExpired      = "capture_expired"
	failureRefundExceedsAmount = "refund_exceeds_capture"
)

// IdempotentPaymentGateway registra cada operação externa antes de
// executá-la. Uma chave já vista com resultado final não chega ao
// provedor: sucesso devolve a referência gravada e falha devolve o
// mesmo erro da primeira tentativa. Indisponibilidade transiente do
// provedor é retentada com backoff exponencial; esgotadas as
// tentativas, a operação é registrada como recusada.
type IdempotentPaymentGateway struct {
	operations domain.PaymentOperationRepository
	provider   domain.PaymentProvider
	logger     pkgApp.AppLogger
}

func NewIdempotentPaymentGateway(operations domain.PaymentOperationRepository, provider domain.PaymentProvider, logger pkgApp.AppLogger) *IdempotentPaymentGateway {
	return &IdempotentPaymentGateway{
		operations: operations,
		provider:   provider,
		logger:     logger,
	}
}

func (g *IdempotentPaymentGateway) Authorize(ctx context.Context, bookingID string, amount int64, paymentMethodRef string, idempotencyKey string) (string, error) {
	return g.execute(ctx, domain.PaymentOperationTypeAuthorize, bookingID, amount, idempotencyKey, func(ctx context.Context) (string, error) {
		return g.provider.Authorize(ctx, amount, paymentMethodRef)
	})
}

func (g *IdempotentPaymentGateway) Capture(ctx context.Context, bookingID string, externalRef string, idempotencyKey string) error {
	_, err := g.execute(ctx, domain.PaymentOperationTypeCapture, bookingID, 0, idempotencyKey, func(ctx context.Context) (string, error) {
		return externalRef, g.provider.Capture(ctx, externalRef)
	})
	return err
}

func (g *IdempotentPaymentGateway) Refund(ctx context.Context, bookingID string, externalRef string, amount int64, idempotencyKey string) (int64, error) {
	op, err := g.executeOperation(ctx, domain.PaymentOperationTypeRefund, bookingID, amount, idempotencyKey, func(ctx context.Context) (string, int64, error) {
		refunded, err := g.provider.Refund(ctx, externalRef, amount)
		return externalRef, refunded, err
	})
	if err != nil {
		return 0, err
	}
	return op.Amount, nil
}

func (g *IdempotentPaymentGateway) RetryAuthorization(ctx context.Context, bookingID string, amount int64, newPaymentMethodRef string, idempotencyKey string) (string, error) {
	return g.execute(ctx, domain.PaymentOperationTypeAuthorize, bookingID, amount, idempotencyKey, func(ctx context.Context) (string, error) {
		return g.provider.Authorize(ctx, amount, newPaymentMethodRef)
	})
}

func (g *IdempotentPaymentGateway) execute(ctx context.Context, opType domain.PaymentOperationType, bookingID string, amount int64, idempotencyKey string, call func(context.Context) (string, error)) (string, error) {
	op, err := g.executeOperation(ctx, opType, bookingID, amount, idempotencyKey, func(ctx context.Context) (string, int64, error) {
		ref, err := call(ctx)
		return ref, amount, err
	})
	if err != nil {
		return "", err
	}
	return op.ExternalRef, nil
}

func (g *IdempotentPaymentGateway) executeOperation(ctx context.Context, opType domain.PaymentOperationType, bookingID string, amount int64, idempotencyKey string, call func(context.Context) (string, int64, error)) (domain.PaymentOperation, error) {
	existing, err := g.operations.FindByKey(ctx, idempotencyKey)
	switch {
	case err == nil:
		if existing.Result != domain.PaymentOperationResultPending {
			pkgApp.LogInfo(ctx, g.logger, "operação de pagamento reaproveitada", map[string]interface{}{
				"idempotency_key": idempotencyKey,
				"operation_type":  string(existing.OperationType),
				"result":          string(existing.Result),
			})
			return existing, replayFailure(existing)
		}
		// Operação interrompida antes de registrar o desfecho: o
		// provedor também é idempotente por referência, então a
		// execução é retomada do zero.
	case errors.Is(err, domain.ErrOperationNotFound):
		existing = domain.PaymentOperation{
			IdempotencyKey: idempotencyKey,
			OperationType:  opType,
			BookingID:      bookingID,
			Amount:         amount,
			Result:         domain.PaymentOperationResultPending,
			CreatedAt:      time.Now(),
		}
		if err := g.operations.Save(ctx, existing); err != nil {
			return domain.PaymentOperation{}, err
		}
	default:
		return domain.PaymentOperation{}, err
	}

	ref, settled, callErr := g.callWithRetry(ctx, &existing, call)
	if errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded) {
		// O desfecho no provedor é desconhecido: a operação permanece
		// pending e uma nova submissão com a mesma chave volta ao
		// provedor em vez de replay de falha.
		return domain.PaymentOperation{}, callErr
	}
	existing.UpdatedAt = time.Now()
	if callErr != nil {
		existing.Result = domain.PaymentOperationResultFailed
		existing.FailureReason = classifyFailure(callErr)
	} else {
		existing.Result = domain.PaymentOperationResultSuccess
		existing.ExternalRef = ref
		existing.Amount = settled
		existing.FailureReason = ""
	}

	if err := g.operations.Update(ctx, existing); err != nil {
		pkgApp.LogError(ctx, g.logger, "falha ao registrar desfecho da operação de pagamento", err, map[string]interface{}{
			"idempotency_key": idempotencyKey,
			"booking_id":      bookingID,
		})
		return domain.PaymentOperation{}, err
	}

	return existing, callErr
}

// callWithRetry retenta somente indisponibilidade transiente do
// provedor. Recusas e demais falhas são definitivas na primeira
// resposta.
func (g *IdempotentPaymentGateway) callWithRetry(ctx context.Context, op *domain.PaymentOperation, call func(context.Context) (string, int64, error)) (string, int64, error) {
	var (
		ref     string
		settled int64
		lastErr error
	)

	_ = retry.Retry(func(uint) error {
		op.Attempts++
		ref, settled, lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, domain.ErrPaymentProviderUnavailable) && op.Attempts < maxProviderAttempts {
			pkgApp.LogInfo(ctx, g.logger, "provedor de pagamento indisponível, retentando", map[string]interface{}{
				"booking_id": op.BookingID,
				"attempt":    op.Attempts,
			})
			return lastErr
		}
		return nil
	}, strategy.Limit(maxProviderAttempts), strategy.Backoff(backoff.BinaryExponential(providerBackoffBase)))

	if lastErr != nil {
		if errors.Is(lastErr, domain.ErrPaymentProviderUnavailable) && op.Attempts >= maxProviderAttempts {
			// Esgotou as tentativas: para o booking o efeito é o mesmo
			// de uma recusa, e o chamador decide a compensação.
			return "", 0, fmt.Errorf("provedor indisponível após %d tentativas: %w", maxProviderAttempts, domain.ErrPaymentDeclined)
		}
		return "", 0, lastErr
	}

	return ref, settled, nil
}

func classifyFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrCaptureExpired):
		return failureCaptureExpired
	case errors.Is(err, domain.ErrRefundExceedsCapture):
		return failureRefundExceedsAmount
	case errors.Is(err, domain.ErrPaymentProviderUnavailable):
		return failureProviderUnavailable
	default:
		return failureDeclined
	}
}

func replayFailure(op domain.PaymentOperation) error {
	if op.Result != domain.PaymentOperationResultFailed {
		return nil
	}
	switch op.FailureReason {
	case failureCaptureExpired:
		return domain.ErrCaptureExpired
	case failureRefundExceedsAmount:
		return domain.ErrRefundExceedsCapture
	case failureProviderUnavailable:
		return domain.ErrPaymentProviderUnavailable
	default:
		return domain.ErrPaymentDeclined
	}
}
