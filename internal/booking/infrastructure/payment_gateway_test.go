package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
)

type nopLogger struct{}

func (nopLogger) Info(context.Context, string, map[string]interface{}) {}
func (nopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (nopLogger) Error(context.Context, string, map[string]interface{}) {}
func (nopLogger) Trace(context.Context, string, map[string]interface{}) {}

// scriptedProvider responde a sequência de erros configurada e conta as
// chamadas recebidas.
type scriptedProvider struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	nextRef int
}

func (p *scriptedProvider) next() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *scriptedProvider) Authorize(ctx context.Context, amount int64, methodRef string) (string, error) {
	if err := p.next(); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.nextRef++
	ref := rune('a' + p.nextRef - 1)
	p.mu.Unlock()
	return "auth-" + string(ref), nil
}

func (p *scriptedProvider) Capture(ctx context.Context, ref string) error {
	return p.next()
}

func (p *scriptedProvider) Refund(ctx context.Context, ref string, amount int64) (int64, error) {
	if err := p.next(); err != nil {
		return 0, err
	}
	return amount, nil
}

func newGateway(provider domain.PaymentProvider) (*IdempotentPaymentGateway, *InMemoryPaymentOperationRepository) {
	operations := NewInMemoryPaymentOperationRepository()
	return NewIdempotentPaymentGateway(operations, provider, nopLogger{}), operations
}

func TestAuthorizeReplaysRecordedSuccess(t *testing.T) {
	provider := &scriptedProvider{}
	gateway, _ := newGateway(provider)
	ctx := context.Background()

	first, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	second, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1")
	if err != nil {
		t.Fatalf("Authorize (replay): %v", err)
	}

	if first != second {
		t.Errorf("replayed ref = %q, want %q", second, first)
	}
	if got := provider.callCount(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (replay must not reach provider)", got)
	}
}

func TestAuthorizeReplaysRecordedFailure(t *testing.T) {
	provider := &scriptedProvider{errs: []error{domain.ErrPaymentDeclined}}
	gateway, _ := newGateway(provider)
	ctx := context.Background()

	if _, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1"); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("Authorize error = %v, want ErrPaymentDeclined", err)
	}

	if _, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1"); !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("Authorize replay error = %v, want ErrPaymentDeclined", err)
	}

	if got := provider.callCount(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestCaptureExpiredIsReplayedAsExpired(t *testing.T) {
	provider := &scriptedProvider{errs: []error{domain.ErrCaptureExpired}}
	gateway, _ := newGateway(provider)
	ctx := context.Background()

	if err := gateway.Capture(ctx, "booking-1", "auth-a", "key-1"); !errors.Is(err, domain.ErrCaptureExpired) {
		t.Fatalf("Capture error = %v, want ErrCaptureExpired", err)
	}
	if err := gateway.Capture(ctx, "booking-1", "auth-a", "key-1"); !errors.Is(err, domain.ErrCaptureExpired) {
		t.Fatalf("Capture replay error = %v, want ErrCaptureExpired", err)
	}
	if got := provider.callCount(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestTransientFailureIsRetried(t *testing.T) {
	provider := &scriptedProvider{errs: []error{
		domain.ErrPaymentProviderUnavailable,
		domain.ErrPaymentProviderUnavailable,
	}}
	gateway, _ := newGateway(provider)

	ref, err := gateway.Authorize(context.Background(), "booking-1", 2500, "card-tok", "key-1")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if ref == "" {
		t.Error("expected an external ref after recovery")
	}
	if got := provider.callCount(); got != 3 {
		t.Errorf("provider calls = %d, want 3", got)
	}
}

func TestTransientExhaustionBecomesDecline(t *testing.T) {
	provider := &scriptedProvider{errs: []error{
		domain.ErrPaymentProviderUnavailable,
		domain.ErrPaymentProviderUnavailable,
		domain.ErrPaymentProviderUnavailable,
		domain.ErrPaymentProviderUnavailable,
	}}
	gateway, operations := newGateway(provider)

	_, err := gateway.Authorize(context.Background(), "booking-1", 2500, "card-tok", "key-1")
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("Authorize error = %v, want wrapped ErrPaymentDeclined", err)
	}
	if got := provider.callCount(); got != maxProviderAttempts {
		t.Errorf("provider calls = %d, want %d", got, maxProviderAttempts)
	}

	op, err := operations.FindByKey(context.Background(), "key-1")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if op.Result != domain.PaymentOperationResultFailed {
		t.Errorf("operation result = %q, want failed", op.Result)
	}
	if op.Attempts != maxProviderAttempts {
		t.Errorf("operation attempts = %d, want %d", op.Attempts, maxProviderAttempts)
	}
}

func TestTimeoutKeepsOperationRetryable(t *testing.T) {
	provider := &scriptedProvider{errs: []error{context.DeadlineExceeded}}
	gateway, operations := newGateway(provider)
	ctx := context.Background()

	if _, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Authorize error = %v, want context.DeadlineExceeded", err)
	}

	op, err := operations.FindByKey(ctx, "key-1")
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if op.Result != domain.PaymentOperationResultPending {
		t.Errorf("operation result = %q, want pending (desfecho desconhecido)", op.Result)
	}

	ref, err := gateway.Authorize(ctx, "booking-1", 2500, "card-tok", "key-1")
	if err != nil {
		t.Fatalf("Authorize (retry): %v", err)
	}
	if ref == "" {
		t.Error("expected an external ref after retry")
	}
	if got := provider.callCount(); got != 2 {
		t.Errorf("provider calls = %d, want 2 (timeout must reach the provider again)", got)
	}
}

func TestRefundBeyondCapturedAmount(t *testing.T) {
	provider := NewInMemoryPaymentProvider(func() string { return "fixed" })
	gateway, _ := newGateway(provider)
	ctx := context.Background()

	ref, err := gateway.Authorize(ctx, "booking-1", 1000, "card-tok", "key-auth")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if _, err := gateway.Refund(ctx, "booking-1", ref, 1500, "key-refund"); !errors.Is(err, domain.ErrRefundExceedsCapture) {
		t.Fatalf("Refund error = %v, want ErrRefundExceedsCapture", err)
	}
}

func TestRefundRecordsSettledAmount(t *testing.T) {
	provider := NewInMemoryPaymentProvider(func() string { return "fixed" })
	gateway, _ := newGateway(provider)
	ctx := context.Background()

	ref, err := gateway.Authorize(ctx, "booking-1", 1000, "card-tok", "key-auth")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	refunded, err := gateway.Refund(ctx, "booking-1", ref, 400, "key-refund")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded != 400 {
		t.Errorf("refunded = %d, want 400", refunded)
	}
}
