package cart

import "time"

// Cart is the durable per-visitor container. The id doubles as the opaque
// token held by the browser; it outlives any single request.
type Cart struct {
	ID        string
	SessionID string
	CreatedAt time.Time
}

// Line is one (product, variant) entry. Quantity is always positive: a
// line at zero is deleted, never stored. Variant is "" when the product has
// no sub-selection, so (cart_id, product_id, variant) stays a usable
// unique key.
type Line struct {
	ID        string
	CartID    string
	ProductID string
	Variant   string
	Quantity  int
	AddedAt   time.Time
}

// ViewLine is a line enriched with live catalog data for display. Name and
// price follow the product; nothing here is a frozen copy.
type ViewLine struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
	Variant    string `json:"variant,omitempty"`
}

// View is the authoritative cart state handed to clients after every read
// and every mutation.
type View struct {
	CartID        string     `json:"cart_id"`
	Lines         []ViewLine `json:"lines"`
	SubtotalCents int64      `json:"subtotal_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
}
