package cart

import (
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/models"
	"storefront/internal/telemetry"
)

// ProductSource resolves live product data. The catalog repository
// satisfies it.
type ProductSource interface {
	Get(id int) (models.Product, error)
}

// Store holds the cart lines for the current session, one line per
// product, in insertion order. Prices are never copied into the cart;
// Total reads them from the catalog every time.
type Store struct {
	mu       sync.RWMutex
	products ProductSource
	lines    []models.LineItem
}

func NewStore(products ProductSource) *Store {
	return &Store{products: products}
}

// Add puts quantity units of a product in the cart, merging with an
// existing line.
func (s *Store) Add(productID, quantity int) (err error) {
	defer func() { telemetry.RecordCartOp("add", err) }()

	if quantity < 1 {
		return models.ErrInvalidQuantity
	}

	product, err := s.products.Get(productID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	existing := 0
	if idx >= 0 {
		existing = s.lines[idx].Quantity
	}
	if existing+quantity > product.Stock {
		return fmt.Errorf("%w: product %d has %d in stock, cart would hold %d",
			models.ErrOutOfStock, productID, product.Stock, existing+quantity)
	}

	if idx >= 0 {
		s.lines[idx].Quantity += quantity
	} else {
		s.lines = append(s.lines, models.LineItem{ProductID: productID, Quantity: quantity})
	}

	slog.Info("Cart updated", "op", "add", "product_id", productID, "quantity", existing+quantity)
	return nil
}

// SetQuantity overwrites a line's quantity. Removal goes through Remove,
// so values below 1 are rejected.
func (s *Store) SetQuantity(productID, quantity int) (err error) {
	defer func() { telemetry.RecordCartOp("set_quantity", err) }()

	if quantity < 1 {
		return models.ErrInvalidQuantity
	}

	product, err := s.products.Get(productID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: product %d has %d in stock", models.ErrOutOfStock, productID, product.Stock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return models.NewNotFoundError("cart line", productID)
	}
	s.lines[idx].Quantity = quantity
	return nil
}

func (s *Store) Remove(productID int) {
	defer telemetry.RecordCartOp("remove", nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(productID); idx >= 0 {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	}
}

func (s *Store) Clear() {
	defer telemetry.RecordCartOp("clear", nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Subtract takes ordered quantities out of the cart, dropping lines that
// reach zero. Lines added or grown since the order was taken stay behind.
func (s *Store) Subtract(ordered []models.LineItem) {
	defer telemetry.RecordCartOp("subtract", nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range ordered {
		idx := s.indexOf(o.ProductID)
		if idx < 0 {
			continue
		}
		s.lines[idx].Quantity -= o.Quantity
		if s.lines[idx].Quantity <= 0 {
			s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
		}
	}
}

func (s *Store) Lines() []models.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.LineItem, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

// LineCount is the number of units in the cart, used for the cart badge.
func (s *Store) LineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Items resolves every line against the catalog. Lines whose product no
// longer resolves are skipped.
func (s *Store) Items() []models.CartItem {
	return s.resolve(s.Lines())
}

func (s *Store) resolve(lines []models.LineItem) []models.CartItem {
	items := make([]models.CartItem, 0, len(lines))
	for _, l := range lines {
		p, err := s.products.Get(l.ProductID)
		if err != nil {
			slog.Warn("Dangling cart line", "product_id", l.ProductID, "error", err)
			continue
		}
		items = append(items, models.CartItem{Product: p, Quantity: l.Quantity})
	}
	return items
}

// Total sums price × quantity at current catalog prices. A line whose
// product no longer resolves contributes zero.
func (s *Store) Total() float64 {
	total := 0.0
	for _, item := range s.Items() {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// Summary bundles items, badge count and total from a single snapshot of
// the lines.
func (s *Store) Summary() models.CartSummary {
	lines := s.Lines()
	summary := models.CartSummary{Items: s.resolve(lines)}
	for _, l := range lines {
		summary.LineCount += l.Quantity
	}
	for _, item := range summary.Items {
		summary.Total += item.Product.Price * float64(item.Quantity)
	}
	return summary
}

func (s *Store) indexOf(productID int) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
