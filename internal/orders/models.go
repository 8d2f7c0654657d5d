package orders

import (
	"encoding/json"
	"time"
)

// Order is the terminal artifact of a checkout: created once on successful
// payment, immutable thereafter except for Status, which is driven by
// fulfillment.
type Order struct {
	ID            string
	CartID        string
	Status        Status
	PaymentStatus PaymentStatus
	PaymentRef    string
	Currency      string
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
	ShippingInfo  json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Item is a frozen copy of a cart line at the moment of purchase. Unlike a
// cart line it must NOT follow later product changes, so name and price are
// stored, not referenced.
type Item struct {
	ID         string
	OrderID    string
	ProductID  string
	Name       string
	PriceCents int64
	Quantity   int
	Variant    string
}
