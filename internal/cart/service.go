package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkariuki/go-storefront-cart/internal/catalog"
	"github.com/mkariuki/go-storefront-cart/internal/pricing"
)

// StockGuard is the advisory check run before any write that grows a
// quantity.
type StockGuard interface {
	Check(ctx context.Context, productID string, qty int) error
}

// Service wraps the Store with live catalog pricing, the advisory stock
// gate, and a read-through view cache. Mutations invalidate the cache and
// callers re-fetch the authoritative view, never trusting optimistic local
// state.
type Service struct {
	Store   Store
	Catalog catalog.Lookup
	Guard   StockGuard
	Cache   ViewCache
	Rules   pricing.Rules

	sfg singleflight.Group
}

// View renders the cart with current product names and prices plus the
// aggregated totals. Singleflight collapses concurrent cache misses for
// the same cart.
func (s *Service) View(ctx context.Context, cartID string) (*View, error) {
	v, err, _ := s.sfg.Do(cartID, func() (any, error) {
		if cached, err := s.Cache.Get(ctx, cartID); err == nil {
			return cached, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cart cache get: %v", err)
		}

		view, err := s.buildView(ctx, cartID)
		if err != nil {
			return nil, err
		}
		if err := s.Cache.Set(ctx, cartID, view); err != nil {
			log.Printf("cart cache set: %v", err)
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*View), nil
}

func (s *Service) buildView(ctx context.Context, cartID string) (*View, error) {
	lines, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	view := &View{CartID: cartID, Lines: []ViewLine{}}
	if len(lines) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Catalog.Products(ctx, ids)
	if err != nil {
		return nil, err
	}

	priced := make([]pricing.PricedLine, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			// product was deleted from the catalog; the line is stale noise
			continue
		}
		view.Lines = append(view.Lines, ViewLine{
			ID:         l.ID,
			ProductID:  l.ProductID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			Quantity:   l.Quantity,
			Variant:    l.Variant,
		})
		priced = append(priced, pricing.PricedLine{PriceCents: p.PriceCents, Quantity: l.Quantity})
	}

	if len(priced) == 0 {
		// every line pointed at a vanished product; an effectively empty
		// cart carries no shipping fee
		return view, nil
	}

	t := pricing.Compute(priced, s.Rules)
	view.SubtotalCents = t.SubtotalCents
	view.ShippingCents = t.ShippingCents
	view.TaxCents = t.TaxCents
	view.TotalCents = t.TotalCents
	return view, nil
}

// AddLine runs the advisory guard against the prospective line total, then
// performs the atomic merge-or-insert.
func (s *Service) AddLine(ctx context.Context, cartID, productID, variant string, qty int) (Line, error) {
	if qty <= 0 {
		return Line{}, fmt.Errorf("quantity must be positive, got %d", qty)
	}

	existing := 0
	lines, err := s.Store.Get(ctx, cartID)
	if err != nil {
		return Line{}, err
	}
	for _, l := range lines {
		if l.ProductID == productID && l.Variant == variant {
			existing = l.Quantity
			break
		}
	}
	if err := s.Guard.Check(ctx, productID, existing+qty); err != nil {
		return Line{}, err
	}

	l, err := s.Store.AddLine(ctx, cartID, productID, variant, qty)
	if err != nil {
		return Line{}, err
	}
	s.invalidate(cartID)
	return l, nil
}

// SetQuantity updates a line in place; zero or negative deletes it. The
// guard is consulted only when the quantity stays positive.
func (s *Service) SetQuantity(ctx context.Context, cartID, lineID string, qty int) error {
	if qty > 0 {
		lines, err := s.Store.Get(ctx, cartID)
		if err != nil {
			return err
		}
		var target *Line
		for i := range lines {
			if lines[i].ID == lineID {
				target = &lines[i]
				break
			}
		}
		if target == nil {
			return ErrLineNotFound
		}
		if err := s.Guard.Check(ctx, target.ProductID, qty); err != nil {
			return err
		}
	}
	if err := s.Store.SetQuantity(ctx, cartID, lineID, qty); err != nil {
		return err
	}
	s.invalidate(cartID)
	return nil
}

func (s *Service) RemoveLine(ctx context.Context, cartID, lineID string) error {
	if err := s.Store.RemoveLine(ctx, cartID, lineID); err != nil {
		return err
	}
	s.invalidate(cartID)
	return nil
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	if err := s.Store.Clear(ctx, cartID); err != nil {
		return err
	}
	s.invalidate(cartID)
	return nil
}

func (s *Service) invalidate(cartID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Cache.Delete(ctx, cartID); err != nil {
		log.Printf("cart cache invalidate: %v", err)
	}
}
