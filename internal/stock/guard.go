package stock

import (
	"context"
	"fmt"

	"github.com/mkariuki/go-storefront-cart/internal/catalog"
)

const (
	ReasonOutOfStock        = "OUT_OF_STOCK"
	ReasonInsufficientStock = "INSUFFICIENT_STOCK"
)

// Rejection reports why a requested quantity cannot be satisfied.
type Rejection struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	Reason    string `json:"reason"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("stock rejected for %s: requested=%d available=%d (%s)",
		r.ProductID, r.Requested, r.Available, r.Reason)
}

// Guard is the advisory inventory-sufficiency check. It places no hold on
// stock: two carts can both pass for the last unit. The reservation step at
// order submission is the authoritative gate.
type Guard struct {
	Catalog catalog.Lookup
}

// Check returns nil when qty units of the product can be satisfied at check
// time, or a *Rejection describing the shortfall.
func (g *Guard) Check(ctx context.Context, productID string, qty int) error {
	p, err := g.Catalog.Product(ctx, productID)
	if err != nil {
		return err
	}
	if !p.InStock {
		return &Rejection{ProductID: productID, Requested: qty, Available: 0, Reason: ReasonOutOfStock}
	}
	if qty > p.Stock {
		return &Rejection{ProductID: productID, Requested: qty, Available: p.Stock, Reason: ReasonInsufficientStock}
	}
	return nil
}
