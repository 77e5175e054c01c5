package usecase

import "github.com/iheb-heni/product-management/internal/domain"

// Явные тотальные функции отображения вместо рефлексивного копирования полей:
// набор переносимых полей зафиксирован в коде и проверяется компилятором.

// reqToEntity переносит все поля запроса в новую сущность.
func reqToEntity(req *ProductReq) *domain.Product {
	return domain.NewProduct(req.Name, req.Description, req.Price, *req.Quantity, req.Category)
}

// toProductRes строит выходную проекцию сохраненной сущности.
func toProductRes(product *domain.Product) *ProductRes {
	return &ProductRes{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Category:    product.Category,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

// toArrProductRes всегда возвращает не-nil срез, чтобы пустой список
// сериализовался как [] а не null.
func toArrProductRes(products []domain.Product) []ProductRes {
	result := make([]ProductRes, 0, len(products))
	for i := range products {
		result = append(result, *toProductRes(&products[i]))
	}
	return result
}
