// Package payment models the external payment gateway. Nothing here moves
// money: the simulated gateway only waits and decides.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

type Request struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	Network   string  `json:"network"`
	Last4     string  `json:"last4"`
}

type Authorization struct {
	ID           string    `json:"id"`
	Reference    string    `json:"reference"`
	Amount       float64   `json:"amount"`
	AuthorizedAt time.Time `json:"authorizedAt"`
}

// Authorizer approves or declines a charge. Implementations may block and
// must return when ctx is done.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (Authorization, error)
}

type GatewayConfig struct {
	MinLatency  time.Duration
	MaxLatency  time.Duration
	FailureRate float64
	Seed        uint64
}

// SimulatedGateway waits a random time in [MinLatency, MaxLatency] and
// declines a FailureRate share of requests. The same seed replays the
// same sequence of latencies and decisions.
type SimulatedGateway struct {
	cfg GatewayConfig

	mu  sync.Mutex
	rng *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewSimulatedGateway(cfg GatewayConfig) *SimulatedGateway {
	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}
	return &SimulatedGateway{
		cfg:   cfg,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1)),
		sleep: sleepContext,
		now:   time.Now,
	}
}

func (g *SimulatedGateway) Authorize(ctx context.Context, req Request) (Authorization, error) {
	if req.Amount <= 0 {
		return Authorization{}, fmt.Errorf("%w: amount must be positive", models.ErrPaymentAuthorizationFailed)
	}

	latency, declined := g.roll()
	slog.Info("Authorizing payment", "reference", req.Reference, "network", req.Network, "latency", latency)

	if err := g.sleep(ctx, latency); err != nil {
		return Authorization{}, fmt.Errorf("%w: %w", models.ErrPaymentAuthorizationFailed, err)
	}
	if declined {
		slog.Warn("Payment declined", "reference", req.Reference, "last4", req.Last4)
		return Authorization{}, fmt.Errorf("%w: card declined", models.ErrPaymentAuthorizationFailed)
	}

	return Authorization{
		ID:           uuid.NewString(),
		Reference:    req.Reference,
		Amount:       req.Amount,
		AuthorizedAt: g.now(),
	}, nil
}

func (g *SimulatedGateway) roll() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	latency := g.cfg.MinLatency
	if spread := g.cfg.MaxLatency - g.cfg.MinLatency; spread > 0 {
		latency += time.Duration(g.rng.Int64N(int64(spread) + 1))
	}
	return latency, g.rng.Float64() < g.cfg.FailureRate
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
