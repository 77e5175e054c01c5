package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога.
// Имя уникально на уровне базы; цена хранится как NUMERIC(10,2).
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	Category    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(name, description string, price decimal.Decimal, quantity int, category string) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		Category:    category,
	}
}
