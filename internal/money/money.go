// Package money converts float prices to whole cents so comparisons and
// rounding are done on integers.
package money

import "math"

// tolerance absorbs representation error such as 0.1+0.2 before a value
// is floored or ceiled to a cent.
const tolerance = 1e-6

func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FloorCents(amount float64) int64 {
	return int64(math.Floor(amount*100 + tolerance))
}

func CeilCents(amount float64) int64 {
	return int64(math.Ceil(amount*100 - tolerance))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

// Round rounds amount to the nearest cent.
func Round(amount float64) float64 {
	return FromCents(Cents(amount))
}
