package models

import (
	"math"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
)

type Product struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Rating      float64  `json:"rating"`
	Reviews     []Review `json:"reviews"`
	Stock       int      `json:"stock"`
	Featured    bool     `json:"featured"`
}

// DisplayRating is the rating rounded to one decimal place. The stored
// Rating keeps full precision.
func (p Product) DisplayRating() float64 {
	return math.Round(p.Rating*10) / 10
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	if p.Reviews != nil {
		reviews := make([]Review, len(p.Reviews))
		copy(reviews, p.Reviews)
		p.Reviews = reviews
	}
	return p
}

type Review struct {
	ID       int       `json:"id"`
	UserID   int       `json:"userId"`
	Username string    `json:"username"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
	Date     time.Time `json:"date"`
}

type User struct {
	ID       int     `json:"id"`
	Email    string  `json:"email"`
	Password string  `json:"-"`
	Name     string  `json:"name"`
	Orders   []Order `json:"orders"`
}

func (u User) Clone() User {
	if u.Orders != nil {
		orders := make([]Order, len(u.Orders))
		for i, o := range u.Orders {
			orders[i] = o.Clone()
		}
		u.Orders = orders
	}
	return u
}

// LineItem is a (product, quantity) pair in a cart or an order.
type LineItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

type ShippingAddress struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type Order struct {
	ID        string           `json:"id"`
	UserID    int              `json:"userId"`
	Lines     []LineItem       `json:"products"`
	Subtotal  float64          `json:"subtotal"`
	Shipping  float64          `json:"shipping"`
	Tax       float64          `json:"tax"`
	Total     float64          `json:"totalAmount"`
	Status    OrderStatus      `json:"status"`
	Address   *ShippingAddress `json:"address,omitempty"`
	CreatedAt time.Time        `json:"date"`
}

func (o Order) Clone() Order {
	if o.Lines != nil {
		lines := make([]LineItem, len(o.Lines))
		copy(lines, o.Lines)
		o.Lines = lines
	}
	if o.Address != nil {
		addr := *o.Address
		o.Address = &addr
	}
	return o
}

// CartItem is a cart line resolved against the live catalog.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type CartSummary struct {
	Items     []CartItem `json:"items"`
	LineCount int        `json:"lineCount"`
	Total     float64    `json:"total"`
}

type SessionResponse struct {
	User          *User  `json:"user"`
	Authenticated bool   `json:"authenticated"`
	Token         string `json:"token,omitempty"`
}
