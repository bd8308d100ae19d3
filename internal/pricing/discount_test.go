package pricing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestComputeDiscount(t *testing.T) {
	got, ok := ComputeDiscount(d("80.00"), ptr(d("100.00")))
	require.True(t, ok)
	require.Equal(t, int64(20), got.Percent)
	require.Equal(t, "20.00", got.Savings.StringFixed(2))

	got, ok = ComputeDiscount(d("19.99"), ptr(d("29.99")))
	require.True(t, ok)
	require.Equal(t, int64(33), got.Percent)
	require.Equal(t, "10.00", got.Savings.StringFixed(2))
}

func TestComputeDiscountAbsent(t *testing.T) {
	_, ok := ComputeDiscount(d("80"), nil)
	require.False(t, ok)

	_, ok = ComputeDiscount(d("80"), ptr(d("80")))
	require.False(t, ok)

	_, ok = ComputeDiscount(d("80"), ptr(d("60")))
	require.False(t, ok)
}

func TestDiscountJSON(t *testing.T) {
	got, ok := ComputeDiscount(d("80"), ptr(d("100")))
	require.True(t, ok)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	require.JSONEq(t, `{"percent":20,"savings":"20.00"}`, string(raw))
}
