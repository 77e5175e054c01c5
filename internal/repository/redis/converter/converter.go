package converter

import (
	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/shopspring/decimal"
)

func ToRedisModel(res *usecase.ProductRes) *ProductRedisModel {
	return &ProductRedisModel{
		ID:          res.ID,
		Name:        res.Name,
		Description: res.Description,
		Price:       res.Price.StringFixed(2),
		Quantity:    res.Quantity,
		Category:    res.Category,
		CreatedAt:   res.CreatedAt,
		UpdatedAt:   res.UpdatedAt,
	}
}

func ToUseCase(model *ProductRedisModel) (*usecase.ProductRes, error) {
	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, err
	}

	return &usecase.ProductRes{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Price:       price,
		Quantity:    model.Quantity,
		Category:    model.Category,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}
