package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request
	ErrValidationFailed = fmt.Errorf("Validation failed")
	ErrInvalidParams    = fmt.Errorf("Invalid request parameters")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("Internal server error. Please try again later.")
)

// ProductNotFoundError — товар с указанным ID отсутствует в каталоге.
type ProductNotFoundError struct {
	ID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product not found with id: %d", e.ID)
}

// NameConflictError — нарушение уникальности имени товара.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("Product with name '%s' already exists", e.Name)
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
