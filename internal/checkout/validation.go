package checkout

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"storefront/internal/models"
)

var shippingRules = []struct {
	field string
	min   int
	value func(models.ShippingAddress) string
}{
	{"firstName", 2, func(a models.ShippingAddress) string { return a.FirstName }},
	{"lastName", 2, func(a models.ShippingAddress) string { return a.LastName }},
	{"address", 5, func(a models.ShippingAddress) string { return a.Address }},
	{"city", 2, func(a models.ShippingAddress) string { return a.City }},
	{"state", 2, func(a models.ShippingAddress) string { return a.State }},
	{"postalCode", 5, func(a models.ShippingAddress) string { return a.PostalCode }},
	{"country", 2, func(a models.ShippingAddress) string { return a.Country }},
	{"phone", 10, func(a models.ShippingAddress) string { return a.Phone }},
}

// ValidateShipping reports the first field that is missing or too short.
// Lengths are counted in characters after trimming surrounding space.
func ValidateShipping(a models.ShippingAddress) error {
	for _, rule := range shippingRules {
		v := strings.TrimSpace(rule.value(a))
		if v == "" {
			return models.NewValidationError(rule.field, "is required")
		}
		if utf8.RuneCountInString(v) < rule.min {
			return models.NewValidationError(rule.field, "must be at least "+strconv.Itoa(rule.min)+" characters")
		}
	}
	return nil
}

type PaymentDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardholderName string `json:"cardholderName"`
	Expiry         string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	SaveCard       bool   `json:"saveCard"`
}

// ValidatePayment checks the shape of the card fields. Spaces and dashes
// in the card number are ignored.
func ValidatePayment(d PaymentDetails) error {
	number := strings.NewReplacer(" ", "", "-", "").Replace(d.CardNumber)
	if !isDigits(number) || len(number) < 16 || len(number) > 19 {
		return models.NewValidationError("cardNumber", "must be 16 to 19 digits")
	}

	if utf8.RuneCountInString(strings.TrimSpace(d.CardholderName)) < 2 {
		return models.NewValidationError("cardholderName", "is required")
	}

	if !validExpiry(d.Expiry) {
		return models.NewValidationError("expiryDate", "must be MM/YY")
	}

	if !isDigits(d.CVV) || len(d.CVV) < 3 || len(d.CVV) > 4 {
		return models.NewValidationError("cvv", "must be 3 or 4 digits")
	}
	return nil
}

func validExpiry(s string) bool {
	month, year, ok := strings.Cut(s, "/")
	if !ok || len(month) != 2 || len(year) != 2 || !isDigits(month) || !isDigits(year) {
		return false
	}
	m, _ := strconv.Atoi(month)
	return m >= 1 && m <= 12
}
