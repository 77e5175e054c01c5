package converter

import "time"

// ProductRedisModel — JSON-представление товара в кэше.
// Цена хранится строкой, чтобы не терять два знака после запятой.
type ProductRedisModel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
