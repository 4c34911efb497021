package catalog

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"storefront/internal/models"
)

// NewArrivals picks up to n products in a pseudo-random order determined
// by seed. The same seed over the same catalog gives the same picks.
func NewArrivals(products []models.Product, n int, seed uint64) []models.Product {
	if n <= 0 {
		return []models.Product{}
	}

	shuffled := make([]models.Product, len(products))
	for i, p := range products {
		shuffled[i] = p.Clone()
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

// Recommend returns up to limit products related to current: first the
// best rated in the same category, then the best rated from elsewhere.
func Recommend(products []models.Product, current models.Product, limit int) []models.Product {
	if limit <= 0 {
		return []models.Product{}
	}

	var same, other []models.Product
	for _, p := range products {
		if p.ID == current.ID {
			continue
		}
		if p.Category == current.Category {
			same = append(same, p.Clone())
		} else {
			other = append(other, p.Clone())
		}
	}

	byRating := func(a, b models.Product) int {
		return cmp.Compare(b.Rating, a.Rating)
	}
	slices.SortStableFunc(same, byRating)
	slices.SortStableFunc(other, byRating)

	out := make([]models.Product, 0, limit)
	for _, group := range [][]models.Product{same, other} {
		for _, p := range group {
			if len(out) == limit {
				return out
			}
			out = append(out, p)
		}
	}
	return out
}
