package converter

import (
	"testing"

	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductRoundTrip(t *testing.T) {
	res := &usecase.ProductRes{
		ID:          9,
		Name:        "USB-C Hub",
		Description: "Seven port USB-C hub with HDMI",
		Price:       decimal.RequireFromString("59.90"),
		Quantity:    40,
		Category:    "Accessories",
	}

	got, err := ToUseCase(ToRedisModel(res))

	require.NoError(t, err)
	assert.Equal(t, res.ID, got.ID)
	assert.True(t, got.Price.Equal(res.Price))
	assert.Equal(t, res.Quantity, got.Quantity)
}

func TestToRedisModel_PriceKeepsScale(t *testing.T) {
	res := &usecase.ProductRes{Price: decimal.RequireFromString("10.5")}

	model := ToRedisModel(res)

	assert.Equal(t, "10.50", model.Price)
}

func TestToUseCase_BadPrice(t *testing.T) {
	model := &ProductRedisModel{ID: 1, Price: "not-a-number"}

	got, err := ToUseCase(model)

	assert.Error(t, err)
	assert.Nil(t, got)
}
