package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var rules = Rules{
	TaxRateBPS:            1600,
	FreeShippingThreshold: 5000,
	FlatShippingFee:       500,
}

func TestComputeBelowFreeShippingThreshold(t *testing.T) {
	lines := []PricedLine{
		{PriceCents: 1000, Quantity: 4}, // subtotal 4000
	}
	got := Compute(lines, rules)

	assert.Equal(t, int64(4000), got.SubtotalCents)
	assert.Equal(t, int64(500), got.ShippingCents)
	assert.Equal(t, int64(640), got.TaxCents)
	assert.Equal(t, int64(5140), got.TotalCents)
}

func TestComputeFreeShippingAtThreshold(t *testing.T) {
	lines := []PricedLine{
		{PriceCents: 2500, Quantity: 2}, // subtotal 5000, exactly at threshold
	}
	got := Compute(lines, rules)

	assert.Equal(t, int64(5000), got.SubtotalCents)
	assert.Equal(t, int64(0), got.ShippingCents)
	assert.Equal(t, int64(800), got.TaxCents)
	assert.Equal(t, int64(5800), got.TotalCents)
}

func TestComputeTotalIsExactSum(t *testing.T) {
	cases := []struct {
		name  string
		lines []PricedLine
	}{
		{"empty", nil},
		{"single line", []PricedLine{{PriceCents: 199, Quantity: 3}}},
		{"mixed lines", []PricedLine{
			{PriceCents: 1250, Quantity: 1},
			{PriceCents: 99, Quantity: 7},
			{PriceCents: 100000, Quantity: 2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.lines, rules)
			assert.Equal(t, got.SubtotalCents+got.ShippingCents+got.TaxCents, got.TotalCents)
		})
	}
}

func TestComputeUsesIntegerTaxMath(t *testing.T) {
	// 333 * 16% = 53.28; integer math truncates, never drifts
	got := Compute([]PricedLine{{PriceCents: 333, Quantity: 1}}, rules)
	assert.Equal(t, int64(53), got.TaxCents)
}

func TestComputeZeroRules(t *testing.T) {
	got := Compute([]PricedLine{{PriceCents: 1000, Quantity: 1}}, Rules{})
	assert.Equal(t, int64(1000), got.SubtotalCents)
	assert.Equal(t, int64(0), got.ShippingCents)
	assert.Equal(t, int64(0), got.TaxCents)
	assert.Equal(t, int64(1000), got.TotalCents)
}
