package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkariuki/go-storefront-cart/internal/catalog"
)

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

func TestGuardLastUnit(t *testing.T) {
	g := &Guard{Catalog: &fakeLookup{products: map[string]catalog.Product{
		"p1": {ID: "p1", InStock: true, Stock: 1},
	}}}

	assert.NoError(t, g.Check(context.Background(), "p1", 1))

	err := g.Check(context.Background(), "p1", 2)
	require.Error(t, err)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, 2, rej.Requested)
	assert.Equal(t, 1, rej.Available)
	assert.Equal(t, ReasonInsufficientStock, rej.Reason)
}

func TestGuardOutOfStockFlag(t *testing.T) {
	// flag wins even when the counter claims stock
	g := &Guard{Catalog: &fakeLookup{products: map[string]catalog.Product{
		"p1": {ID: "p1", InStock: false, Stock: 10},
	}}}

	err := g.Check(context.Background(), "p1", 1)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, ReasonOutOfStock, rej.Reason)
	assert.Equal(t, 0, rej.Available)
}

func TestGuardUnknownProduct(t *testing.T) {
	g := &Guard{Catalog: &fakeLookup{products: map[string]catalog.Product{}}}
	err := g.Check(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}
