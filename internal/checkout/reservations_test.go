package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileHoldsFreshCheckout(t *testing.T) {
	wants, stale := reconcileHolds(map[string]int{}, []ReserveItem{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 1},
	})
	require.Len(t, wants, 2)
	assert.Equal(t, holdDelta{ProductID: "p1", Qty: 2, Delta: 2}, wants[0])
	assert.Equal(t, holdDelta{ProductID: "p2", Qty: 1, Delta: 1}, wants[1])
	assert.Empty(t, stale)
}

func TestReconcileHoldsResubmissionMovesNoStock(t *testing.T) {
	held := map[string]int{"p1": 2, "p2": 1}
	wants, stale := reconcileHolds(held, []ReserveItem{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 1},
	})
	assert.Empty(t, wants, "holds from the crashed attempt are kept, never decremented twice")
	assert.Empty(t, stale)
}

func TestReconcileHoldsQuantityGrewTakesOnlyTheDifference(t *testing.T) {
	wants, stale := reconcileHolds(map[string]int{"p1": 2}, []ReserveItem{{ProductID: "p1", Qty: 5}})
	require.Len(t, wants, 1)
	assert.Equal(t, holdDelta{ProductID: "p1", Qty: 5, Delta: 3}, wants[0])
	assert.Empty(t, stale)
}

func TestReconcileHoldsQuantityShrankGivesStockBack(t *testing.T) {
	wants, _ := reconcileHolds(map[string]int{"p1": 5}, []ReserveItem{{ProductID: "p1", Qty: 2}})
	require.Len(t, wants, 1)
	assert.Equal(t, holdDelta{ProductID: "p1", Qty: 2, Delta: -3}, wants[0])
}

func TestReconcileHoldsRemovedLineIsStale(t *testing.T) {
	held := map[string]int{"p1": 2, "p2": 1}
	wants, stale := reconcileHolds(held, []ReserveItem{{ProductID: "p1", Qty: 2}})
	assert.Empty(t, wants)
	assert.Equal(t, []string{"p2"}, stale)
}

func TestHoldsMatch(t *testing.T) {
	items := []ReserveItem{{ProductID: "p1", Qty: 2}, {ProductID: "p2", Qty: 1}}

	assert.True(t, holdsMatch(map[string]int{"p1": 2, "p2": 1}, items))
	assert.False(t, holdsMatch(map[string]int{"p1": 2}, items), "missing hold")
	assert.False(t, holdsMatch(map[string]int{"p1": 1, "p2": 1}, items), "quantity drifted after a cart edit")
	assert.False(t, holdsMatch(map[string]int{"p1": 2, "p2": 1, "p3": 4}, items), "stale hold")
	assert.False(t, holdsMatch(nil, nil))
}
