package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func viewOf(items map[uuid.UUID]int) *View {
	rows := make([]models.CartItem, 0, len(items))
	for id, q := range items {
		rows = append(rows, models.CartItem{ID: uuid.New(), ProductID: id, Quantity: q})
	}
	return NewView(rows)
}

func TestLocalCacheReconcileOverwrites(t *testing.T) {
	cache := NewLocalCache()
	a, b := uuid.New(), uuid.New()

	seq := cache.AddProvisional(a, 2)
	cache.SetProvisional(b, 1)
	require.Equal(t, 3, cache.Count())

	applied := cache.Reconcile(seq, viewOf(map[uuid.UUID]int{a: 1}))
	require.True(t, applied)
	require.Equal(t, 1, cache.QuantityOf(a))
	require.False(t, cache.Contains(b))
	require.Equal(t, seq, cache.Applied())
}

func TestLocalCacheDropsStaleResponses(t *testing.T) {
	cache := NewLocalCache()
	a := uuid.New()

	first := cache.SetProvisional(a, 1)
	second := cache.SetProvisional(a, 4)

	require.True(t, cache.Reconcile(second, viewOf(map[uuid.UUID]int{a: 4})))
	require.False(t, cache.Reconcile(first, viewOf(map[uuid.UUID]int{a: 1})))
	require.Equal(t, 4, cache.QuantityOf(a))
}

func TestLocalCacheRemovesNonPositive(t *testing.T) {
	cache := NewLocalCache()
	a := uuid.New()
	cache.SetProvisional(a, 2)
	cache.AddProvisional(a, -2)
	require.False(t, cache.Contains(a))
	require.Zero(t, cache.Count())
}

func TestViewWithoutProductContributesNoMoney(t *testing.T) {
	view := viewOf(map[uuid.UUID]int{uuid.New(): 3})
	require.Equal(t, 3, view.Count())
	require.Equal(t, "0.00", view.Summary.Subtotal)
	require.Equal(t, "9.99", view.Summary.Shipping)

	var nilView *View
	require.Zero(t, nilView.Count())
	require.False(t, nilView.Contains(uuid.New()))
}
