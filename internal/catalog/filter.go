package catalog

import (
	"cmp"
	"slices"
	"strings"

	"storefront/internal/models"
	"storefront/internal/money"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortFeatured   SortKey = "featured"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortRatingDesc SortKey = "rating-desc"
	SortNameAsc    SortKey = "name-asc"
	SortNameDesc   SortKey = "name-desc"
)

var sortKeys = []SortKey{SortFeatured, SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNameAsc, SortNameDesc}

// ParseSortKey maps a query value to a SortKey. An empty value means
// featured order.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortFeatured, nil
	}
	for _, k := range sortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", models.NewValidationError("sort", "unknown sort key "+s)
}

// Criteria constrains the catalog. Zero values mean no constraint.
// Prices are in the catalog's native unit.
type Criteria struct {
	Category  string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

func (c Criteria) matches(p models.Product, search string) bool {
	if c.Category != "" && p.Category != c.Category {
		return false
	}

	price := money.Cents(p.Price)
	if c.MinPrice != nil && price < money.FloorCents(*c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && price > money.CeilCents(*c.MaxPrice) {
		return false
	}

	if c.MinRating != nil && p.Rating < *c.MinRating {
		return false
	}

	if search != "" &&
		!strings.Contains(strings.ToLower(p.Name), search) &&
		!strings.Contains(strings.ToLower(p.Description), search) {
		return false
	}

	return true
}

// Apply filters products by c and orders the result by key. The input is
// left untouched and ties keep their input order, so equal inputs always
// give equal outputs.
func Apply(products []models.Product, c Criteria, key SortKey) []models.Product {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if c.matches(p, search) {
			out = append(out, p.Clone())
		}
	}

	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmp.Compare(money.Cents(a.Price), money.Cents(b.Price))
		})
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmp.Compare(money.Cents(b.Price), money.Cents(a.Price))
		})
	case SortRatingDesc:
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return cmp.Compare(b.Rating, a.Rating)
		})
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers, so each call gets its own.
		col := collate.New(language.English)
		dir := 1
		if key == SortNameDesc {
			dir = -1
		}
		slices.SortStableFunc(out, func(a, b models.Product) int {
			return dir * col.CompareString(a.Name, b.Name)
		})
	}

	return out
}
