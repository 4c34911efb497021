package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/models"
)

// Repository is the in-memory source of truth for products. Review
// submission and checkout mutate it in place, and every later read sees
// the change.
type Repository struct {
	mu           sync.RWMutex
	products     []*models.Product
	byID         map[int]*models.Product
	nextReviewID int
	now          func() time.Time
}

func NewRepository(products []models.Product) (*Repository, error) {
	r := &Repository{
		products:     make([]*models.Product, 0, len(products)),
		byID:         make(map[int]*models.Product, len(products)),
		nextReviewID: 1,
		now:          time.Now,
	}

	for _, p := range products {
		if _, exists := r.byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate product id %d", p.ID)
		}
		product := p.Clone()
		if product.Reviews == nil {
			product.Reviews = []models.Review{}
		}
		r.products = append(r.products, &product)
		r.byID[product.ID] = &product

		for _, review := range product.Reviews {
			if review.ID >= r.nextReviewID {
				r.nextReviewID = review.ID + 1
			}
		}
	}

	return r, nil
}

// All returns copies of every product in insertion order.
func (r *Repository) All() []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, len(r.products))
	for i, p := range r.products {
		out[i] = p.Clone()
	}
	return out
}

func (r *Repository) Get(id int) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return models.Product{}, models.NewNotFoundError("product", id)
	}
	return p.Clone(), nil
}

// Categories lists distinct categories in the order they first appear.
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, p := range r.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// AppendReview puts review at the front of the product's reviews and
// recomputes the rating as the mean of all review ratings.
func (r *Repository) AppendReview(productID int, review models.Review) (models.Product, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return models.Product{}, models.NewValidationError("rating", "must be between 1 and 5")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[productID]
	if !ok {
		return models.Product{}, models.NewNotFoundError("product", productID)
	}

	if review.ID == 0 {
		review.ID = r.nextReviewID
	}
	if review.ID >= r.nextReviewID {
		r.nextReviewID = review.ID + 1
	}
	if review.Date.IsZero() {
		review.Date = r.now()
	}

	p.Reviews = append([]models.Review{review}, p.Reviews...)
	p.Rating = meanRating(p.Reviews)

	slog.Info("Review added", "product_id", productID, "review_id", review.ID, "rating", p.Rating)
	return p.Clone(), nil
}

func (r *Repository) SetPrice(productID int, price float64) error {
	if price < 0 {
		return models.NewValidationError("price", "must be non-negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[productID]
	if !ok {
		return models.NewNotFoundError("product", productID)
	}
	p.Price = price
	return nil
}

// DecrementStock lowers stock by qty, never below zero.
func (r *Repository) DecrementStock(productID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[productID]
	if !ok {
		return models.NewNotFoundError("product", productID)
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	return nil
}

func meanRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
