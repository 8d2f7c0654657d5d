package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, cartID string) (Checkout, error) {
	c := Checkout{ID: uuid.NewString(), CartID: cartID, State: StateCollectingShipping}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO checkouts(id, cart_id, state)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		c.ID, c.CartID, c.State).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Checkout{}, err
	}
	return c, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Checkout, error) {
	var c Checkout
	err := r.DB.QueryRow(ctx, `
		SELECT id, cart_id, state, attempt, shipping_info, order_id, failure_reason,
		       created_at, updated_at
		FROM checkouts WHERE id=$1`, id).
		Scan(&c.ID, &c.CartID, &c.State, &c.Attempt, &c.ShippingInfo, &c.OrderID,
			&c.FailureReason, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, ErrNotFound
	}
	if err != nil {
		return Checkout{}, err
	}
	return c, nil
}

// SetShipping stores the captured shipping document and advances
// COLLECTING_SHIPPING -> COLLECTING_PAYMENT.
func (r *Repo) SetShipping(ctx context.Context, id string, info json.RawMessage) error {
	return r.transition(ctx, id, StateCollectingPayment, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `UPDATE checkouts SET shipping_info=$2 WHERE id=$1`, id, info)
		return err
	})
}

// SetPaymentCollected advances COLLECTING_PAYMENT -> REVIEW. Payment
// details themselves never touch this system.
func (r *Repo) SetPaymentCollected(ctx context.Context, id string) error {
	return r.transition(ctx, id, StateReview, nil)
}

// BeginSubmit moves REVIEW -> SUBMITTING and bumps the attempt counter in
// the same update. A checkout already in SUBMITTING (an abandoned or
// crashed attempt) is returned as-is so the retry reuses the attempt and
// therefore the idempotency key.
func (r *Repo) BeginSubmit(ctx context.Context, id string) (Checkout, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Checkout{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Checkout
	err = tx.QueryRow(ctx, `
		SELECT id, cart_id, state, attempt, shipping_info, order_id, failure_reason,
		       created_at, updated_at
		FROM checkouts WHERE id=$1 FOR UPDATE`, id).
		Scan(&c.ID, &c.CartID, &c.State, &c.Attempt, &c.ShippingInfo, &c.OrderID,
			&c.FailureReason, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, ErrNotFound
	}
	if err != nil {
		return Checkout{}, err
	}

	if c.State == StateSubmitting {
		return c, tx.Commit(ctx)
	}
	if !CanTransition(c.State, StateSubmitting) {
		return Checkout{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, c.State, StateSubmitting)
	}

	c.State = StateSubmitting
	c.Attempt++
	if _, err := tx.Exec(ctx, `
		UPDATE checkouts SET state=$2, attempt=$3, updated_at=now() WHERE id=$1`,
		id, c.State, c.Attempt); err != nil {
		return Checkout{}, err
	}
	return c, tx.Commit(ctx)
}

// Finish records the terminal outcome of a submission.
func (r *Repo) Finish(ctx context.Context, id string, state State, orderID, failureReason string) error {
	if !state.IsTerminal() {
		return fmt.Errorf("%w: finish with non-terminal state %s", ErrIllegalTransition, state)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE checkouts SET state=$2, order_id=$3, failure_reason=$4, updated_at=now()
		WHERE id=$1 AND state=$5`, id, state, orderID, failureReason, StateSubmitting)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: checkout %s not in %s", ErrIllegalTransition, id, StateSubmitting)
	}
	return nil
}

func (r *Repo) transition(ctx context.Context, id string, to State, extra func(context.Context, pgx.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT state FROM checkouts WHERE id=$1 FOR UPDATE`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !CanTransition(State(cur), to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, cur, to)
	}
	if extra != nil {
		if err := extra(ctx, tx); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE checkouts SET state=$2, updated_at=now() WHERE id=$1`, id, to); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
