package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iheb-heni/product-management/internal/domain"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// ProductUseCase реализует бизнес-логику управления товарами каталога.
// Каждая операция выполняется ровно в одной транзакции; уникальность имени
// гарантируется уникальным индексом в базе, предварительная проверка
// по имени — только для раннего ответа клиенту.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// CreateProduct создает новый товар. Конфликт имени возвращается как
// e.NameConflictError — либо по предварительной проверке, либо по
// нарушению уникального индекса при вставке.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *ProductReq) (*ProductRes, error) {
	const op = "ProductUseCase.CreateProduct"
	p.logger.Infof("Creating new product: %s", req.Name)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	existing, err := p.productRepo.FindByName(ctx, req.Name)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if existing != nil {
		err = &e.NameConflictError{Name: req.Name}
		return nil, err
	}

	created, err := p.productRepo.Insert(ctx, reqToEntity(req))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := toProductRes(created)
	err = p.enqueueOutbox(ctx, ProductCreated, created.ID, res)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.logger.Infof("Product created with ID: %d", created.ID)
	return res, nil
}

// GetProductByID возвращает товар по ID, сначала заглядывая в кэш.
// Промах кэша читается из базы в read-only транзакции, результат
// докладывается в кэш в фоне с коротким дедлайном.
func (p *ProductUseCase) GetProductByID(ctx context.Context, id int64) (*ProductRes, error) {
	const op = "ProductUseCase.GetProductByID"
	p.logger.Debugf("Fetching product with ID: %d", id)

	if cached, cacheErr := p.cacheRepo.GetProduct(ctx, id); cacheErr == nil && cached != nil {
		return cached, nil
	}

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	product, err := p.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if product == nil {
		err = &e.ProductNotFoundError{ID: id}
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := toProductRes(product)

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		if err := p.cacheRepo.SetProduct(bgCtx, res); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return res, nil
}

// GetAllProducts возвращает все товары в порядке вставки (по возрастанию ID).
func (p *ProductUseCase) GetAllProducts(ctx context.Context) ([]ProductRes, error) {
	const op = "ProductUseCase.GetAllProducts"
	p.logger.Debugf("Fetching all products")

	return p.listProducts(ctx, op, func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.FindAll(ctx)
	})
}

// UpdateProduct перезаписывает изменяемые поля товара из запроса.
// ID и createdAt сохраняются, updatedAt обновляется хранилищем.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*ProductRes, error) {
	const op = "ProductUseCase.UpdateProduct"
	p.logger.Infof("Updating product with ID: %d", id)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	product, err := p.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if product == nil {
		err = &e.ProductNotFoundError{ID: id}
		return nil, err
	}

	if req.Name != product.Name {
		conflicting, findErr := p.productRepo.FindByName(ctx, req.Name)
		if findErr != nil {
			err = e.Wrap(op, findErr)
			return nil, err
		}
		if conflicting != nil && conflicting.ID != id {
			err = &e.NameConflictError{Name: req.Name}
			return nil, err
		}
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Quantity = *req.Quantity
	product.Category = req.Category

	updated, err := p.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res := toProductRes(updated)
	err = p.enqueueOutbox(ctx, ProductUpdated, updated.ID, res)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша старых данных товара
	if err := p.cacheRepo.DeleteProduct(ctx, id); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, err))
	}

	p.logger.Infof("Product updated with ID: %d", updated.ID)
	return res, nil
}

// DeleteProduct удаляет товар безвозвратно. Отсутствие товара — ошибка,
// повторный DELETE того же ID вернет NotFound.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"
	p.logger.Infof("Deleting product with ID: %d", id)

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	exists, err := p.productRepo.ExistsByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !exists {
		err = &e.ProductNotFoundError{ID: id}
		return err
	}

	err = p.productRepo.DeleteByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = p.enqueueOutbox(ctx, ProductDeleted, id, deletedPayload{ID: id})
	if err != nil {
		return e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := p.cacheRepo.DeleteProduct(ctx, id); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", e.Wrap(op, err))
	}

	p.logger.Infof("Product deleted with ID: %d", id)
	return nil
}

// GetProductsByCategory возвращает товары категории; сравнение без учета регистра.
func (p *ProductUseCase) GetProductsByCategory(ctx context.Context, category string) ([]ProductRes, error) {
	const op = "ProductUseCase.GetProductsByCategory"
	p.logger.Debugf("Fetching products by category: %s", category)

	return p.listProducts(ctx, op, func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.FindByCategory(ctx, category)
	})
}

// GetLowStockProducts возвращает товары с количеством строго меньше порога.
func (p *ProductUseCase) GetLowStockProducts(ctx context.Context, threshold int) ([]ProductRes, error) {
	const op = "ProductUseCase.GetLowStockProducts"
	p.logger.Debugf("Fetching low stock products with threshold: %d", threshold)

	return p.listProducts(ctx, op, func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.FindLowStock(ctx, threshold)
	})
}

// SearchProducts ищет товары по подстроке в имени или описании без учета регистра.
func (p *ProductUseCase) SearchProducts(ctx context.Context, keyword string) ([]ProductRes, error) {
	const op = "ProductUseCase.SearchProducts"
	p.logger.Debugf("Searching products with keyword: %s", keyword)

	return p.listProducts(ctx, op, func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.SearchByKeyword(ctx, keyword)
	})
}

// listProducts выполняет переданный запрос списка в read-only транзакции.
func (p *ProductUseCase) listProducts(
	ctx context.Context,
	op string,
	query func(ctx context.Context) ([]domain.Product, error),
) ([]ProductRes, error) {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, p.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	products, err := query(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return toArrProductRes(products), nil
}

type deletedPayload struct {
	ID int64 `json:"id"`
}

// enqueueOutbox записывает событие жизненного цикла товара в таблицу outbox
// внутри текущей транзакции.
func (p *ProductUseCase) enqueueOutbox(ctx context.Context, eventType OutboxEventType, productID int64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventType, productID, data))
	return err
}
