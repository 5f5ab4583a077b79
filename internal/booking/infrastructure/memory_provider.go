package infrastructure

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mateusmacedo/go-rideshare/internal/booking/domain"
)

const authorizationWindow = 7 * 24 * time.Hour

type authorizationState string

const (
	authorizationStateHeld     authorizationState = "held"
	authorizationStateCaptured authorizationState = "captured"
)

type authorization struct {
	state      authorizationState
	amount     int64
	refunded   int64
	authorized time.Time
}

// InMemoryPaymentProvider simula um provedor de pagamento para
// desenvolvimento e testes. O comportamento é dirigido pelo prefixo do
// método de pagamento: "declined*" recusa a autorização e
// "unavailable*" responde como indisponível. Autorizações expiram após
// sete dias sem captura.
type InMemoryPaymentProvider struct {
	mu             sync.Mutex
	authorizations map[string]*authorization
	idGenerator    func() string
	now            func() time.Time
}

func NewInMemoryPaymentProvider(idGenerator func() string) *InMemoryPaymentProvider {
	return &InMemoryPaymentProvider{
		authorizations: make(map[string]*authorization),
		idGenerator:    idGenerator,
		now:            time.Now,
	}
}

func (p *InMemoryPaymentProvider) Authorize(ctx context.Context, amount int64, methodRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(methodRef, "declined"):
		return "", domain.ErrPaymentDeclined
	case strings.HasPrefix(methodRef, "unavailable"):
		return "", domain.ErrPaymentProviderUnavailable
	}

	ref := "auth-" + p.idGenerator()

	p.mu.Lock()
	p.authorizations[ref] = &authorization{
		state:      authorizationStateHeld,
		amount:     amount,
		authorized: p.now(),
	}
	p.mu.Unlock()

	return ref, nil
}

func (p *InMemoryPaymentProvider) Capture(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	auth, ok := p.authorizations[ref]
	if !ok {
		return domain.ErrPaymentDeclined
	}
	if auth.state == authorizationStateCaptured {
		return nil
	}
	if p.now().Sub(auth.authorized) > authorizationWindow {
		return domain.ErrCaptureExpired
	}

	auth.state = authorizationStateCaptured
	return nil
}

func (p *InMemoryPaymentProvider) Refund(ctx context.Context, ref string, amount int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	auth, ok := p.authorizations[ref]
	if !ok {
		return 0, domain.ErrPaymentDeclined
	}
	if amount <= 0 || auth.refunded+amount > auth.amount {
		return 0, domain.ErrRefundExceedsCapture
	}

	auth.refunded += amount
	return amount, nil
}

// ExpireAuthorization retroage a autorização para fora da janela de
// captura. Exclusivo para testes.
func (p *InMemoryPaymentProvider) ExpireAuthorization(ref string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if auth, ok := p.authorizations[ref]; ok {
		auth.authorized = p.now().Add(-authorizationWindow - time.Hour)
	}
}
