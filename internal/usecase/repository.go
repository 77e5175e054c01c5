package usecase

import (
	"context"

	"github.com/iheb-heni/product-management/internal/domain"
	"github.com/shopspring/decimal"
)

// ProductRepository — контракт хранилища товаров.
// Все методы выполняются в транзакции, открытой вызывающей стороной
// и доступной через контекст (pkg/tr). Методы Find* возвращают (nil, nil)
// при отсутствии записи; перевод в доменную ошибку — задача usecase.
type ProductRepository interface {
	Insert(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindByName(ctx context.Context, name string) (*domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)
	FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error)
	FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	SearchByKeyword(ctx context.Context, keyword string) ([]domain.Product, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

// CacheRepository — кэш выходных проекций товара. Промах — (nil, nil).
type CacheRepository interface {
	GetProduct(ctx context.Context, id int64) (*ProductRes, error)
	SetProduct(ctx context.Context, product *ProductRes) error
	DeleteProduct(ctx context.Context, id int64) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}
