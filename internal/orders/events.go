package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCompleted = "OrderCompleted"
	EventCartClear      = "CartClearRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // cart_id
	Payload       json.RawMessage `json:"payload"`
}

type ItemSnapshot struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Qty        int    `json:"qty"`
	Variant    string `json:"variant,omitempty"`
}

type OrderCompletedPayload struct {
	OrderID    string         `json:"order_id"`
	CartID     string         `json:"cart_id"`
	TotalCents int64          `json:"total_cents"`
	Currency   string         `json:"currency"`
	Items      []ItemSnapshot `json:"items"`
}

// CartClearPayload is published when the post-order cart clear fails; the
// worker retries it. A duplicate clear is idempotent and safe.
type CartClearPayload struct {
	CartID  string `json:"cart_id"`
	OrderID string `json:"order_id"`
}
