package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestly/farm-market/internal/model"
)

func TestNormalizeLinesMergesDuplicates(t *testing.T) {
	lines, err := normalizeLines([]CartLine{
		{ProduceItemID: 7, Quantity: 2},
		{ProduceItemID: 3, Quantity: 1},
		{ProduceItemID: 7, Quantity: 3},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	// Sorted by produce item id, quantities merged.
	assert.Equal(t, CartLine{ProduceItemID: 3, Quantity: 1}, lines[0])
	assert.Equal(t, CartLine{ProduceItemID: 7, Quantity: 5}, lines[1])
}

func TestNormalizeLinesEmptyCart(t *testing.T) {
	_, err := normalizeLines(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestNormalizeLinesRejectsBadQuantities(t *testing.T) {
	_, err := normalizeLines([]CartLine{{ProduceItemID: 1, Quantity: 0}})
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = normalizeLines([]CartLine{{ProduceItemID: 1, Quantity: -2}})
	assert.ErrorIs(t, err, ErrBadQuantity)

	_, err = normalizeLines([]CartLine{{ProduceItemID: 0, Quantity: 1}})
	assert.ErrorIs(t, err, ErrBadQuantity)
}

func TestOrderTotal(t *testing.T) {
	items := []model.OrderItem{
		{Quantity: 2, PricePerUnitCents: 350, TotalPriceCents: 700},
		{Quantity: 1, PricePerUnitCents: 499, TotalPriceCents: 499},
	}
	assert.Equal(t, int64(1199), orderTotal(items))
	assert.Zero(t, orderTotal(nil))
}
