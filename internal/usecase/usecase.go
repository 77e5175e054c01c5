package usecase

import "context"

type ProductUC interface {
	CreateProduct(ctx context.Context, req *ProductReq) (*ProductRes, error)
	GetProductByID(ctx context.Context, id int64) (*ProductRes, error)
	GetAllProducts(ctx context.Context) ([]ProductRes, error)
	UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*ProductRes, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProductsByCategory(ctx context.Context, category string) ([]ProductRes, error)
	GetLowStockProducts(ctx context.Context, threshold int) ([]ProductRes, error)
	SearchProducts(ctx context.Context, keyword string) ([]ProductRes, error)
}
