package pricing

// Rules are the configuration inputs of the aggregator. All amounts are in
// integer minor currency units; the tax rate is in basis points.
type Rules struct {
	TaxRateBPS            int
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// PricedLine is the minimal shape the aggregator needs: a line priced at
// the current catalog price.
type PricedLine struct {
	PriceCents int64
	Quantity   int
}

// Compute derives the cart view totals from the current line contents.
// Pure function: no I/O, integer math only.
func Compute(lines []PricedLine, r Rules) Totals {
	var t Totals
	for _, l := range lines {
		t.SubtotalCents += l.PriceCents * int64(l.Quantity)
	}
	if t.SubtotalCents < r.FreeShippingThreshold {
		t.ShippingCents = r.FlatShippingFee
	}
	t.TaxCents = t.SubtotalCents * int64(r.TaxRateBPS) / 10000
	t.TotalCents = t.SubtotalCents + t.ShippingCents + t.TaxCents
	return t
}
