package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the durable mapping from cart id to its ordered lines. All
// cross-request coordination for a cart happens here; there are no
// in-process cart locks.
type Store interface {
	EnsureCart(ctx context.Context, cartID string) error
	Get(ctx context.Context, cartID string) ([]Line, error)
	AddLine(ctx context.Context, cartID, productID, variant string, qty int) (Line, error)
	SetQuantity(ctx context.Context, cartID, lineID string, qty int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	Clear(ctx context.Context, cartID string) error
}

type PostgresStore struct{ DB *pgxpool.Pool }

// EnsureCart creates the cart row if it does not exist. A client-held token
// whose row was lost keeps working: the row is recreated under the same id.
func (s *PostgresStore) EnsureCart(ctx context.Context, cartID string) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO carts(id, session_id) VALUES ($1, $1)
		ON CONFLICT (id) DO NOTHING`, cartID)
	return err
}

// Get never reports "not found": an absent cart reads as an empty one.
func (s *PostgresStore) Get(ctx context.Context, cartID string) ([]Line, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, cart_id, product_id, variant, quantity, added_at
		FROM cart_lines WHERE cart_id=$1
		ORDER BY added_at, id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.CartID, &l.ProductID, &l.Variant, &l.Quantity, &l.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddLine merges into an existing (product, variant) line or inserts a new
// one. The merge-or-insert decision and the quantity bump are a single
// conditional upsert keyed by (cart_id, product_id, variant), so two
// concurrent adds for the same pair both land: one inserts, the other
// increments.
func (s *PostgresStore) AddLine(ctx context.Context, cartID, productID, variant string, qty int) (Line, error) {
	l := Line{CartID: cartID, ProductID: productID, Variant: variant}
	err := s.DB.QueryRow(ctx, `
		INSERT INTO cart_lines(id, cart_id, product_id, variant, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id, variant) DO UPDATE
		SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, quantity, added_at`,
		uuid.NewString(), cartID, productID, variant, qty).
		Scan(&l.ID, &l.Quantity, &l.AddedAt)
	if err != nil {
		return Line{}, err
	}
	return l, nil
}

// SetQuantity updates a line in place. Zero or negative quantity is a
// removal request, not an error.
func (s *PostgresStore) SetQuantity(ctx context.Context, cartID, lineID string, qty int) error {
	if qty <= 0 {
		_, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE id=$1 AND cart_id=$2`, lineID, cartID)
		return err
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE cart_lines SET quantity=$3 WHERE id=$1 AND cart_id=$2`, lineID, cartID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

// RemoveLine is an idempotent delete: removing an absent line is a no-op
// success so retries are safe.
func (s *PostgresStore) RemoveLine(ctx context.Context, cartID, lineID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE id=$1 AND cart_id=$2`, lineID, cartID)
	return err
}

// Clear deletes every line for the cart. Idempotent; used after checkout.
func (s *PostgresStore) Clear(ctx context.Context, cartID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id=$1`, cartID)
	return err
}
