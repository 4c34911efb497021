package catalog

import (
	"net/url"
	"strconv"

	"storefront/internal/models"
)

// Query is the catalog query surface consumed by the presentation layer.
type Query struct {
	Category  string
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *int
	Sort      SortKey
}

func (q Query) Criteria() Criteria {
	c := Criteria{
		Category: q.Category,
		Search:   q.Search,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}
	if q.MinRating != nil {
		r := float64(*q.MinRating)
		c.MinRating = &r
	}
	return c
}

// ParseQuery reads a Query from URL query parameters: category, search,
// minPrice, maxPrice, minRating and sort.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Category: v.Get("category"),
		Search:   v.Get("search"),
	}

	var err error
	if q.MinPrice, err = optionalFloat(v, "minPrice"); err != nil {
		return Query{}, err
	}
	if q.MaxPrice, err = optionalFloat(v, "maxPrice"); err != nil {
		return Query{}, err
	}

	if s := v.Get("minRating"); s != "" {
		r, err := strconv.Atoi(s)
		if err != nil || r < 0 || r > 5 {
			return Query{}, models.NewValidationError("minRating", "must be an integer between 0 and 5")
		}
		q.MinRating = &r
	}

	if q.Sort, err = ParseSortKey(v.Get("sort")); err != nil {
		return Query{}, err
	}
	return q, nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil, models.NewValidationError(key, "must be a non-negative number")
	}
	return &f, nil
}
