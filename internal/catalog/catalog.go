package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

// Product is the read-only view the cart core needs of the catalog. Stock
// is owned by fulfillment/admin flows; this core only reads it.
type Product struct {
	ID         string
	Name       string
	PriceCents int64
	InStock    bool
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Lookup answers product queries from the add-to-cart and checkout paths.
type Lookup interface {
	Product(ctx context.Context, productID string) (Product, error)
	Products(ctx context.Context, productIDs []string) (map[string]Product, error)
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Product(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, price_cents, in_stock, stock, created_at, updated_at
		FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.InStock, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) Products(ctx context.Context, productIDs []string) (map[string]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price_cents, in_stock, stock, created_at, updated_at
		FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Product, len(productIDs))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.InStock, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
