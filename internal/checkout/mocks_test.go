package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mkariuki/go-storefront-cart/internal/cart"
	"github.com/mkariuki/go-storefront-cart/internal/catalog"
	"github.com/mkariuki/go-storefront-cart/internal/orders"
	"github.com/mkariuki/go-storefront-cart/internal/payment"
	"github.com/mkariuki/go-storefront-cart/internal/stock"
)

type memCheckouts struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*Checkout
}

func newMemCheckouts() *memCheckouts { return &memCheckouts{rows: map[string]*Checkout{}} }

func (m *memCheckouts) Create(_ context.Context, cartID string) (Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := &Checkout{ID: fmt.Sprintf("chk-%d", m.seq), CartID: cartID, State: StateCollectingShipping}
	m.rows[c.ID] = c
	return *c, nil
}

func (m *memCheckouts) Get(_ context.Context, id string) (Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return Checkout{}, ErrNotFound
	}
	return *c, nil
}

func (m *memCheckouts) SetShipping(_ context.Context, id string, info json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(c.State, StateCollectingPayment) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, StateCollectingPayment)
	}
	c.ShippingInfo = info
	c.State = StateCollectingPayment
	return nil
}

func (m *memCheckouts) SetPaymentCollected(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(c.State, StateReview) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, StateReview)
	}
	c.State = StateReview
	return nil
}

func (m *memCheckouts) BeginSubmit(_ context.Context, id string) (Checkout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return Checkout{}, ErrNotFound
	}
	if c.State == StateSubmitting {
		return *c, nil
	}
	if !CanTransition(c.State, StateSubmitting) {
		return Checkout{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, StateSubmitting)
	}
	c.State = StateSubmitting
	c.Attempt++
	return *c, nil
}

func (m *memCheckouts) Finish(_ context.Context, id string, state State, orderID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	c.State = state
	c.OrderID = orderID
	c.FailureReason = reason
	return nil
}

type mockCarts struct {
	mu       sync.Mutex
	lines    map[string][]cart.Line
	clearErr error
	cleared  []string
}

func (m *mockCarts) Get(_ context.Context, cartID string) ([]cart.Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[cartID], nil
}

func (m *mockCarts) Clear(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.cleared = append(m.cleared, cartID)
	delete(m.lines, cartID)
	return nil
}

type fakeLookup struct {
	products map[string]catalog.Product
}

func (f *fakeLookup) Product(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeLookup) Products(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockReserver struct {
	mu       sync.Mutex
	rejects  []stock.Rejection
	held     map[string]map[string]int // checkout -> product -> qty
	released []string
	calls    int
}

func (m *mockReserver) AlreadyReserved(_ context.Context, checkoutID string, items []ReserveItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return holdsMatch(m.held[checkoutID], items), nil
}

func (m *mockReserver) ReserveAll(_ context.Context, checkoutID string, items []ReserveItem) (bool, []stock.Rejection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.rejects) > 0 {
		return false, m.rejects, nil
	}
	if m.held == nil {
		m.held = map[string]map[string]int{}
	}
	h := make(map[string]int, len(items))
	for _, it := range items {
		h[it.ProductID] = it.Qty
	}
	m.held[checkoutID] = h
	return true, nil, nil
}

func (m *mockReserver) ReleaseAll(_ context.Context, checkoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released = append(m.released, checkoutID)
	delete(m.held, checkoutID)
	return nil
}

type mockPayment struct {
	mu      sync.Mutex
	decline bool
	err     error
	keys    []string
	amounts []int64
}

func (m *mockPayment) Charge(_ context.Context, amountCents int64, _, idempotencyKey string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.decline {
		return "", payment.ErrDeclined
	}
	m.keys = append(m.keys, idempotencyKey)
	m.amounts = append(m.amounts, amountCents)
	return "pay-ref-1", nil
}

type mockOrders struct {
	mu      sync.Mutex
	created []orders.Order
	items   [][]orders.Item
	err     error
}

func (m *mockOrders) Create(_ context.Context, o orders.Order, items []orders.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	m.items = append(m.items, items)
	return nil
}

type mockPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (m *mockPublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, value)
}
