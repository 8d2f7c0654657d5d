package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrBadTransition = errors.New("illegal order status transition")
)

type Repo struct{ DB *pgxpool.Pool }

// Create writes the order and its item snapshots in one transaction; a
// partially written order is never observable.
func (r *Repo) Create(ctx context.Context, o Order, items []Item) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, cart_id, status, payment_status, payment_ref, currency,
		                   subtotal_cents, shipping_cents, tax_cents, total_cents, shipping_info)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.CartID, o.Status, o.PaymentStatus, o.PaymentRef, o.Currency,
		o.SubtotalCents, o.ShippingCents, o.TaxCents, o.TotalCents, o.ShippingInfo)
	if err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, product_id, name, price_cents, quantity, variant)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), o.ID, it.ProductID, it.Name, it.PriceCents, it.Quantity, it.Variant); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, orderID string) (Order, []Item, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, cart_id, status, payment_status, payment_ref, currency,
		       subtotal_cents, shipping_cents, tax_cents, total_cents, shipping_info,
		       created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.CartID, &o.Status, &o.PaymentStatus, &o.PaymentRef, &o.Currency,
			&o.SubtotalCents, &o.ShippingCents, &o.TaxCents, &o.TotalCents, &o.ShippingInfo,
			&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, nil, ErrNotFound
	}
	if err != nil {
		return Order{}, nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, name, price_cents, quantity, variant
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return Order{}, nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.PriceCents, &it.Quantity, &it.Variant); err != nil {
			return Order{}, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}

func (r *Repo) GetStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateStatus applies an externally driven fulfillment transition. The
// current status is locked for the duration so concurrent transitions
// serialize.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(Status(cur), to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, cur, to)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
