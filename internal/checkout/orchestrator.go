// Package checkout sequences a purchase: shipping details, then payment,
// then a confirmed order. Each Orchestrator is one pass through the flow;
// starting over means beginning a new one.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/telemetry"

	"github.com/google/uuid"
)

type State int

const (
	StateShippingInfo State = iota
	StatePayment
	// StateProcessing is Payment with an authorization in flight.
	StateProcessing
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StatePayment:
		return "payment"
	case StateProcessing:
		return "processing"
	case StateConfirmed:
		return "confirmed"
	}
	return "shipping_info"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Cart interface {
	Lines() []models.LineItem
	Total() float64
	Subtract(ordered []models.LineItem)
}

type Session interface {
	Current() (models.User, bool)
	AppendOrder(ctx context.Context, userID int, order models.Order) (models.User, error)
}

type Inventory interface {
	DecrementStock(productID, qty int) error
}

type Dependencies struct {
	Cart       Cart
	Session    Session
	Inventory  Inventory
	Authorizer payment.Authorizer
	Pricing    Pricing
}

type Orchestrator struct {
	deps Dependencies
	now  func() time.Time

	mu      sync.Mutex
	state   State
	address *models.ShippingAddress
	order   *models.Order
	lastErr error
}

// Begin starts a checkout. The user must be logged in and the cart must
// hold at least one line.
func Begin(deps Dependencies) (*Orchestrator, error) {
	if _, ok := deps.Session.Current(); !ok {
		return nil, models.ErrNotAuthenticated
	}
	if len(deps.Cart.Lines()) == 0 {
		return nil, models.ErrEmptyCart
	}

	slog.Info("Checkout started")
	return &Orchestrator{
		deps:  deps,
		now:   time.Now,
		state: StateShippingInfo,
	}, nil
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SubmitShipping records the address and moves on to payment. An invalid
// address leaves the state unchanged.
func (o *Orchestrator) SubmitShipping(addr models.ShippingAddress) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateShippingInfo {
		return fmt.Errorf("%w: shipping cannot be submitted in %s", models.ErrInvalidTransition, o.state)
	}
	if err := ValidateShipping(addr); err != nil {
		return err
	}

	o.address = &addr
	o.transition(StatePayment)
	return nil
}

// SubmitPayment authorizes the current cart and, on success, places the
// order. The lock is released while the authorizer runs; calls made in
// the meantime get ErrPaymentInProgress.
func (o *Orchestrator) SubmitPayment(ctx context.Context, details PaymentDetails) (models.Order, error) {
	o.mu.Lock()
	switch o.state {
	case StateProcessing:
		o.mu.Unlock()
		return models.Order{}, models.ErrPaymentInProgress
	case StatePayment:
	default:
		state := o.state
		o.mu.Unlock()
		return models.Order{}, fmt.Errorf("%w: payment cannot be submitted in %s", models.ErrInvalidTransition, state)
	}

	if err := ValidatePayment(details); err != nil {
		o.mu.Unlock()
		return models.Order{}, err
	}

	user, ok := o.deps.Session.Current()
	if !ok {
		o.mu.Unlock()
		return models.Order{}, models.ErrNotAuthenticated
	}
	lines := o.deps.Cart.Lines()
	if len(lines) == 0 {
		o.mu.Unlock()
		return models.Order{}, models.ErrEmptyCart
	}
	quote := o.deps.Pricing.Quote(o.deps.Cart.Total())

	orderID := uuid.NewString()
	o.lastErr = nil
	o.transition(StateProcessing)
	o.mu.Unlock()

	start := time.Now()
	auth, err := o.deps.Authorizer.Authorize(ctx, payment.Request{
		Reference: orderID,
		Amount:    quote.Total,
		Network:   string(DetectNetwork(details.CardNumber)),
		Last4:     lastFour(details.CardNumber),
	})
	telemetry.ObservePayment(start, err)

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		if !errors.Is(err, models.ErrPaymentAuthorizationFailed) {
			err = fmt.Errorf("%w: %w", models.ErrPaymentAuthorizationFailed, err)
		}
		return models.Order{}, o.fail(err)
	}

	order := models.Order{
		ID:        orderID,
		UserID:    user.ID,
		Lines:     lines,
		Subtotal:  quote.Subtotal,
		Shipping:  quote.Shipping,
		Tax:       quote.Tax,
		Total:     quote.Total,
		Status:    models.OrderPending,
		Address:   o.address,
		CreatedAt: o.now(),
	}

	if _, err := o.deps.Session.AppendOrder(ctx, user.ID, order); err != nil {
		slog.Error("Authorized payment could not be recorded", "order_id", orderID, "authorization_id", auth.ID, "error", err)
		return models.Order{}, o.fail(err)
	}

	for _, line := range lines {
		if err := o.deps.Inventory.DecrementStock(line.ProductID, line.Quantity); err != nil {
			slog.Warn("Failed to decrement stock", "product_id", line.ProductID, "error", err)
		}
	}
	o.deps.Cart.Subtract(lines)

	o.order = &order
	o.transition(StateConfirmed)
	slog.Info("Order placed", "order_id", order.ID, "user_id", user.ID, "total", order.Total, "authorization_id", auth.ID)
	return order.Clone(), nil
}

// fail returns the flow to Payment so the user can retry.
func (o *Orchestrator) fail(err error) error {
	o.lastErr = err
	o.transition(StatePayment)
	slog.Warn("Payment failed", "error", err)
	return err
}

func (o *Orchestrator) transition(to State) {
	telemetry.RecordTransition(o.state.String(), to.String())
	o.state = to
}

type Snapshot struct {
	State     State                   `json:"state"`
	Address   *models.ShippingAddress `json:"address,omitempty"`
	Quote     Quote                   `json:"quote"`
	Order     *models.Order           `json:"order,omitempty"`
	LastError string                  `json:"lastError,omitempty"`
}

// Snapshot describes the flow for display. Before confirmation the quote
// reflects the live cart; afterwards it is the placed order's breakdown.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{State: o.state}
	if o.address != nil {
		addr := *o.address
		s.Address = &addr
	}
	if o.lastErr != nil {
		s.LastError = o.lastErr.Error()
	}

	if o.order != nil {
		order := o.order.Clone()
		s.Order = &order
		s.Quote = Quote{Subtotal: order.Subtotal, Shipping: order.Shipping, Tax: order.Tax, Total: order.Total}
		return s
	}
	s.Quote = o.deps.Pricing.Quote(o.deps.Cart.Total())
	return s
}
