package checkout

import "storefront/internal/money"

// Pricing holds the flat shipping fee and the tax rate applied to the
// subtotal.
type Pricing struct {
	ShippingFee float64
	TaxRate     float64
}

func DefaultPricing() Pricing {
	return Pricing{ShippingFee: 10, TaxRate: 0.07}
}

type Quote struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Quote prices a subtotal. Tax is rounded to the cent before it is added.
func (p Pricing) Quote(subtotal float64) Quote {
	subtotal = money.Round(subtotal)
	tax := money.Round(subtotal * p.TaxRate)
	return Quote{
		Subtotal: subtotal,
		Shipping: p.ShippingFee,
		Tax:      tax,
		Total:    money.Round(subtotal + p.ShippingFee + tax),
	}
}
