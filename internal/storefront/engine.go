// Package storefront wires the catalog, cart, session and checkout into
// the engine the HTTP layer drives.
package storefront

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/telemetry"
)

type Engine struct {
	Catalog *catalog.Repository
	Cart    *cart.Store
	Session *auth.Store

	pricing    checkout.Pricing
	authorizer payment.Authorizer

	mu     sync.Mutex
	active *checkout.Orchestrator
	// abandoned is a checkout dropped by logout whose payment may still
	// be in flight.
	abandoned *checkout.Orchestrator
}

func New(repo *catalog.Repository, c *cart.Store, session *auth.Store, pricing checkout.Pricing, authorizer payment.Authorizer) *Engine {
	return &Engine{
		Catalog:    repo,
		Cart:       c,
		Session:    session,
		pricing:    pricing,
		authorizer: authorizer,
	}
}

// Query filters and sorts the live catalog.
func (e *Engine) Query(q catalog.Query) []models.Product {
	return catalog.Apply(e.Catalog.All(), q.Criteria(), q.Sort)
}

func (e *Engine) NewArrivals(n int, seed uint64) []models.Product {
	return catalog.NewArrivals(e.Catalog.All(), n, seed)
}

func (e *Engine) Recommendations(productID, limit int) ([]models.Product, error) {
	current, err := e.Catalog.Get(productID)
	if err != nil {
		return nil, err
	}
	return catalog.Recommend(e.Catalog.All(), current, limit), nil
}

// SubmitReview adds a review by the logged-in user.
func (e *Engine) SubmitReview(productID, rating int, comment string) (models.Product, error) {
	user, ok := e.Session.Current()
	if !ok {
		return models.Product{}, models.ErrNotAuthenticated
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return models.Product{}, models.NewValidationError("comment", "is required")
	}

	product, err := e.Catalog.AppendReview(productID, models.Review{
		UserID:   user.ID,
		Username: user.Name,
		Rating:   rating,
		Comment:  comment,
	})
	if err != nil {
		return models.Product{}, err
	}
	telemetry.ReviewsSubmitted.Inc()
	return product, nil
}

// BeginCheckout starts a fresh checkout, discarding any previous one. It
// refuses while a payment is being authorized so one cart is never
// charged twice.
func (e *Engine) BeginCheckout() (*checkout.Orchestrator, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range []*checkout.Orchestrator{e.active, e.abandoned} {
		if o != nil && o.State() == checkout.StateProcessing {
			return nil, models.ErrPaymentInProgress
		}
	}

	o, err := checkout.Begin(checkout.Dependencies{
		Cart:       e.Cart,
		Session:    e.Session,
		Inventory:  e.Catalog,
		Authorizer: e.authorizer,
		Pricing:    e.pricing,
	})
	if err != nil {
		return nil, err
	}

	e.active = o
	e.abandoned = nil
	return o, nil
}

func (e *Engine) ActiveCheckout() (*checkout.Orchestrator, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != nil
}

func (e *Engine) Pricing() checkout.Pricing {
	return e.pricing
}

// Logout ends the session and abandons any checkout in progress. The
// cart is kept.
func (e *Engine) Logout(ctx context.Context) {
	e.Session.Logout(ctx)

	e.mu.Lock()
	if e.active != nil {
		slog.Info("Checkout abandoned on logout", "state", e.active.State())
		if e.active.State() == checkout.StateProcessing {
			e.abandoned = e.active
		}
	}
	e.active = nil
	e.mu.Unlock()
}
