package checkout

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkariuki/go-storefront-cart/internal/stock"
)

type ReserveItem struct {
	ProductID string
	Qty       int
}

// holdDelta is one stock movement needed to bring a recorded hold in line
// with the requested quantity.
type holdDelta struct {
	ProductID string
	Qty       int // quantity the reservation row should hold afterwards
	Delta     int // stock to take; negative gives stock back
}

// reconcileHolds diffs the requested items against holds already recorded
// for this checkout. A resubmission of a stuck checkout therefore moves
// stock only by the difference, never decrementing a held product twice.
// Held products missing from items are stale and must be released.
func reconcileHolds(held map[string]int, items []ReserveItem) (wants []holdDelta, stale []string) {
	requested := make(map[string]bool, len(items))
	for _, it := range items {
		requested[it.ProductID] = true
		if d := it.Qty - held[it.ProductID]; d != 0 {
			wants = append(wants, holdDelta{ProductID: it.ProductID, Qty: it.Qty, Delta: d})
		}
	}
	for pid := range held {
		if !requested[pid] {
			stale = append(stale, pid)
		}
	}
	return wants, stale
}

// holdsMatch reports whether the recorded holds cover the requested items
// exactly, product for product and quantity for quantity.
func holdsMatch(held map[string]int, items []ReserveItem) bool {
	if len(items) == 0 || len(held) != len(items) {
		return false
	}
	for _, it := range items {
		if held[it.ProductID] != it.Qty {
			return false
		}
	}
	return true
}

// ReservationRepo is the authoritative stock gate at submission time. The
// advisory guard places no hold; this repo does, under row locks, and is
// keyed by checkout so a crashed submission can short-circuit on retry.
type ReservationRepo struct{ DB *pgxpool.Pool }

// AlreadyReserved reports whether the holds for this checkout already match
// the requested items exactly, which lets a resubmitted attempt skip the
// stock gate. A count-only check is not enough: the cart can change between
// the crashed attempt and the retry.
func (r *ReservationRepo) AlreadyReserved(ctx context.Context, checkoutID string, items []ReserveItem) (bool, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT product_id, qty FROM reservations
		WHERE checkout_id = $1 AND status = 'RESERVED'`, checkoutID)
	if err != nil {
		return false, err
	}
	held, err := scanHolds(rows)
	if err != nil {
		return false, err
	}
	return holdsMatch(held, items), nil
}

// ReserveAll locks each product row, verifies stock and moves it into the
// checkout's holds. Existing holds are reconciled rather than re-taken, so
// the call is safe to repeat after a crash. Any shortfall rolls the whole
// transaction back, leaving stock, holds and cart untouched.
func (r *ReservationRepo) ReserveAll(ctx context.Context, checkoutID string, items []ReserveItem) (ok bool, rejects []stock.Rejection, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT product_id, qty FROM reservations
		WHERE checkout_id = $1 AND status = 'RESERVED' FOR UPDATE`, checkoutID)
	if err != nil {
		return false, nil, err
	}
	held, err := scanHolds(rows)
	if err != nil {
		return false, nil, err
	}
	wants, stale := reconcileHolds(held, items)

	for _, w := range wants {
		var avail int
		var inStock bool
		if err := tx.QueryRow(ctx, `
			SELECT stock, in_stock FROM products WHERE id=$1 FOR UPDATE`, w.ProductID).
			Scan(&avail, &inStock); err != nil {
			return false, nil, err
		}
		if w.Delta > 0 && (!inStock || avail < w.Delta) {
			reason := stock.ReasonInsufficientStock
			if !inStock {
				reason = stock.ReasonOutOfStock
				avail = 0
			}
			rejects = append(rejects, stock.Rejection{
				ProductID: w.ProductID,
				Requested: w.Qty,
				Available: avail + held[w.ProductID],
				Reason:    reason,
			})
			continue
		}

		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2 WHERE id=$1`, w.ProductID, w.Delta); err != nil {
			return false, nil, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO reservations(checkout_id, product_id, qty, status)
			VALUES ($1,$2,$3,'RESERVED')
			ON CONFLICT (checkout_id, product_id)
			DO UPDATE SET qty = EXCLUDED.qty, status = 'RESERVED'`,
			checkoutID, w.ProductID, w.Qty); err != nil {
			return false, nil, err
		}
	}

	for _, pid := range stale {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + $2 WHERE id=$1`, pid, held[pid]); err != nil {
			return false, nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE reservations SET status='RELEASED'
			WHERE checkout_id=$1 AND product_id=$2`, checkoutID, pid); err != nil {
			return false, nil, err
		}
	}

	if len(rejects) > 0 {
		return false, rejects, nil // rollback via defer
	}
	return true, nil, tx.Commit(ctx)
}

// ReleaseAll puts reserved stock back after a declined payment.
func (r *ReservationRepo) ReleaseAll(ctx context.Context, checkoutID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT product_id, qty FROM reservations
		WHERE checkout_id=$1 AND status='RESERVED' FOR UPDATE`, checkoutID)
	if err != nil {
		return err
	}
	held, err := scanHolds(rows)
	if err != nil {
		return err
	}

	for pid, qty := range held {
		if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id=$1`, pid, qty); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `
		UPDATE reservations SET status='RELEASED'
		WHERE checkout_id=$1 AND status='RESERVED'`, checkoutID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanHolds(rows pgx.Rows) (map[string]int, error) {
	defer rows.Close()
	held := map[string]int{}
	for rows.Next() {
		var pid string
		var qty int
		if err := rows.Scan(&pid, &qty); err != nil {
			return nil, err
		}
		held[pid] = qty
	}
	return held, rows.Err()
}
