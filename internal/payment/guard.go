package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/resilience"
)

// Guarded stops calling a failing gateway for a while. Declines count as
// failures, so a run of declines also opens the breaker.
type Guarded struct {
	next    Authorizer
	breaker *resilience.CircuitBreaker
}

func NewGuarded(next Authorizer, threshold int, timeout time.Duration) *Guarded {
	return &Guarded{
		next:    next,
		breaker: resilience.NewCircuitBreaker("payment-gateway", threshold, timeout),
	}
}

func (g *Guarded) Authorize(ctx context.Context, req Request) (Authorization, error) {
	res, err := g.breaker.Execute(func() (any, error) {
		return g.next.Authorize(ctx, req)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrCircuitHalfOpen) {
		return Authorization{}, fmt.Errorf("%w: %w", models.ErrPaymentAuthorizationFailed, err)
	}
	if err != nil {
		return Authorization{}, err
	}
	return res.(Authorization), nil
}

func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}
