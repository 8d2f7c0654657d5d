package checkout

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("checkout not found")
	ErrIllegalTransition = errors.New("illegal checkout state transition")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
)

// Checkout is one durable checkout attempt over a cart. Attempt counts
// entries into SUBMITTING; together with the cart id it derives the payment
// idempotency key, so a resubmission of a stuck attempt reuses the key.
type Checkout struct {
	ID            string
	CartID        string
	State         State
	Attempt       int
	ShippingInfo  json.RawMessage
	OrderID       string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
