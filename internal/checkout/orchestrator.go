package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/catalog"
	kafkax "github.com/mkariuki/go-storefront-cart/internal/kafka"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/payment"
	"github.com/mkariuki/go-storefront-cart/internal/pricing"
	"github.com/mkariuki/go-storefront-cart/internal/stock"
)

// Checkouts is the durable state machine storage.
type Checkouts interface {
	Create(ctx context.Context, cartID string) (Checkout, error)
	Get(ctx context.Context, id string) (Checkout, error)
	SetShipping(ctx context.Context, id string, info json.RawMessage) error
	SetPaymentCollected(ctx context.Context, id string) error
	BeginSubmit(ctx context.Context, id string) (Checkout, error)
	Finish(ctx context.Context, id string, state State, orderID, failureReason string) error
}

// Reserver is the authoritative stock gate.
type Reserver interface {
	AlreadyReserved(ctx context.Context, checkoutID string, items []ReserveItem) (bool, error)
	ReserveAll(ctx context.Context, checkoutID string, items []ReserveItem) (bool, []stock.Rejection, error)
	ReleaseAll(ctx context.Context, checkoutID string) error
}

// CartAccess is the slice of the cart store the orchestrator needs.
type CartAccess interface {
	Get(ctx context.Context, cartID string) ([]cart.Line, error)
	Clear(ctx context.Context, cartID string) error
}

// OrderWriter persists the immutable snapshot.
type OrderWriter interface {
	Create(ctx context.Context, o orders.Order, items []orders.Item) error
}

// Publisher is satisfied by the kafka producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Orchestrator sequences a checkout submission: authoritative stock gate,
// external payment capture, order snapshot, cart clear. The cart is left
// untouched on every failure path so the user can adjust quantities.
type Orchestrator struct {
	Checkouts    Checkouts
	Carts        CartAccess
	Catalog      catalog.Lookup
	Reservations Reserver
	Payment      payment.Provider
	Orders       OrderWriter
	Events       Publisher // order.completed
	ClearQueue   Publisher // cart.clear retries
	Rules        pricing.Rules
	Currency     string
	ServiceName  string

	PaymentTimeout time.Duration
}

// Result is the user-facing outcome of a submission.
type Result struct {
	CheckoutID    string            `json:"checkout_id"`
	State         State             `json:"state"`
	OrderID       string            `json:"order_id,omitempty"`
	Reason        string            `json:"reason,omitempty"`
	RejectedLines []stock.Rejection `json:"rejected_lines,omitempty"`
	Totals        pricing.Totals    `json:"totals"`
}

// Start opens a checkout for a cart. An empty cart has nothing to check
// out, so the attempt is refused up front; the cart can still empty out
// later, which Submit handles as a terminal failure.
func (o *Orchestrator) Start(ctx context.Context, cartID string) (Checkout, error) {
	lines, err := o.Carts.Get(ctx, cartID)
	if err != nil {
		return Checkout{}, err
	}
	if len(lines) == 0 {
		return Checkout{}, ErrEmptyCart
	}
	return o.Checkouts.Create(ctx, cartID)
}

func (o *Orchestrator) CaptureShipping(ctx context.Context, id string, info json.RawMessage) error {
	return o.Checkouts.SetShipping(ctx, id, info)
}

func (o *Orchestrator) CapturePayment(ctx context.Context, id string) error {
	return o.Checkouts.SetPaymentCollected(ctx, id)
}

func (o *Orchestrator) Get(ctx context.Context, id string) (Checkout, error) {
	return o.Checkouts.Get(ctx, id)
}

// Submit drives one attempt to completion. Storage errors propagate and
// leave the checkout in SUBMITTING; resubmitting reuses the attempt
// counter, so the payment idempotency key stays stable across retries.
func (o *Orchestrator) Submit(ctx context.Context, checkoutID string) (Result, error) {
	c, err := o.Checkouts.BeginSubmit(ctx, checkoutID)
	if err != nil {
		return Result{}, err
	}
	res := Result{CheckoutID: c.ID}

	lines, err := o.Carts.Get(ctx, c.CartID)
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return o.fail(ctx, &res, c.ID, ReasonEmptyCart, nil)
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := o.Catalog.Products(ctx, ids)
	if err != nil {
		return Result{}, err
	}

	var (
		reserveItems []ReserveItem
		snapshot     []orders.Item
		priced       []pricing.PricedLine
		rejects      []stock.Rejection
	)
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			rejects = append(rejects, stock.Rejection{
				ProductID: l.ProductID, Requested: l.Quantity, Reason: stock.ReasonOutOfStock,
			})
			continue
		}
		reserveItems = append(reserveItems, ReserveItem{ProductID: l.ProductID, Qty: l.Quantity})
		snapshot = append(snapshot, orders.Item{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   l.Quantity,
			Variant:    l.Variant,
		})
		priced = append(priced, pricing.PricedLine{PriceCents: p.PriceCents, Quantity: l.Quantity})
	}
	if len(rejects) > 0 {
		return o.fail(ctx, &res, c.ID, ReasonOutOfStock, rejects)
	}

	res.Totals = pricing.Compute(priced, o.Rules)

	// Authoritative stock gate. A resubmitted attempt whose holds still
	// match the cart skips the decrement; a mutated cart reconciles.
	held, err := o.Reservations.AlreadyReserved(ctx, c.ID, reserveItems)
	if err != nil {
		return Result{}, err
	}
	if !held {
		ok, stockRejects, err := o.Reservations.ReserveAll(ctx, c.ID, reserveItems)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return o.fail(ctx, &res, c.ID, ReasonOutOfStock, stockRejects)
		}
	}

	idemKey := IdempotencyKey(c.CartID, c.Attempt)
	payCtx := ctx
	if o.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		payCtx, cancel = context.WithTimeout(ctx, o.PaymentTimeout)
		defer cancel()
	}
	ref, err := o.Payment.Charge(payCtx, res.Totals.TotalCents, o.Currency, idemKey)
	if errors.Is(err, payment.ErrDeclined) {
		if relErr := o.Reservations.ReleaseAll(ctx, c.ID); relErr != nil {
			log.Printf("release reservations for %s: %v", c.ID, relErr)
		}
		return o.fail(ctx, &res, c.ID, ReasonPaymentDeclined, nil)
	}
	if err != nil {
		return Result{}, err
	}

	order := orders.Order{
		ID:            uuid.NewString(),
		CartID:        c.CartID,
		Status:        orders.StatusPending,
		PaymentStatus: orders.PaymentPaid,
		PaymentRef:    ref,
		Currency:      o.Currency,
		SubtotalCents: res.Totals.SubtotalCents,
		ShippingCents: res.Totals.ShippingCents,
		TaxCents:      res.Totals.TaxCents,
		TotalCents:    res.Totals.TotalCents,
		ShippingInfo:  c.ShippingInfo,
	}
	if err := o.Orders.Create(ctx, order, snapshot); err != nil {
		// payment is captured; the retry reuses the idempotency key
		return Result{}, err
	}

	if err := o.Checkouts.Finish(ctx, c.ID, StateCompleted, order.ID, ""); err != nil {
		return Result{}, err
	}

	// Payment is captured and the order exists: a clear failure must not
	// turn this into a user-facing error. Queue the retry instead.
	if err := o.Carts.Clear(ctx, c.CartID); err != nil {
		log.Printf("cart clear for %s: %v, queueing retry", c.CartID, err)
		o.publishClear(c.CartID, order.ID)
	}

	o.publishCompleted(c.CartID, order, snapshot)

	res.State = StateCompleted
	res.OrderID = order.ID
	return res, nil
}

// IdempotencyKey derives the payment key deterministically from the cart
// and the attempt counter.
func IdempotencyKey(cartID string, attempt int) string {
	return fmt.Sprintf("%s:%d", cartID, attempt)
}

func (o *Orchestrator) fail(ctx context.Context, res *Result, id, reason string, rejects []stock.Rejection) (Result, error) {
	if err := o.Checkouts.Finish(ctx, id, StateFailed, "", reason); err != nil {
		return Result{}, err
	}
	res.State = StateFailed
	res.Reason = reason
	res.RejectedLines = rejects
	return *res, nil
}

func (o *Orchestrator) publishClear(cartID, orderID string) {
	if o.ClearQueue == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventCartClear,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      o.ServiceName,
		CorrelationID: cartID,
		Payload:       kafkax.MustMarshal(orders.CartClearPayload{CartID: cartID, OrderID: orderID}),
	}
	o.ClearQueue.Publish(orders.PartitionKey(cartID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventCartClear)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (o *Orchestrator) publishCompleted(cartID string, order orders.Order, items []orders.Item) {
	if o.Events == nil {
		return
	}
	snaps := make([]orders.ItemSnapshot, 0, len(items))
	for _, it := range items {
		snaps = append(snaps, orders.ItemSnapshot{
			ProductID:  it.ProductID,
			Name:       it.Name,
			PriceCents: it.PriceCents,
			Qty:        it.Quantity,
			Variant:    it.Variant,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCompleted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      o.ServiceName,
		CorrelationID: cartID,
		Payload: kafkax.MustMarshal(orders.OrderCompletedPayload{
			OrderID:    order.ID,
			CartID:     cartID,
			TotalCents: order.TotalCents,
			Currency:   order.Currency,
			Items:      snaps,
		}),
	}
	o.Events.Publish(orders.PartitionKey(cartID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCompleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
