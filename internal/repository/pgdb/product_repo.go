package pgdb

import (
	"context"
	"errors"

	"github.com/iheb-heni/product-management/internal/domain"
	"github.com/iheb-heni/product-management/internal/repository/pgdb/converter"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const productColumns = "id, name, description, price, quantity, category, created_at, updated_at"

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
// Все методы работают в транзакции вызывающей стороны (pkg/tr).
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// Insert сохраняет новый товар; обе временные метки проставляет база.
// Нарушение уникального индекса по имени возвращается как e.NameConflictError.
func (p *ProductRepo) Insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (name, description, price, quantity, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	row := tx.QueryRow(ctx, query,
		product.Name, product.Description, product.Price, product.Quantity, product.Category,
	)

	model, err := scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, &e.NameConflictError{Name: product.Name}
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ProductToEntity(model), nil
}

// Update перезаписывает изменяемые поля и обновляет updated_at.
// created_at не затрагивается. Конфликт имени — e.NameConflictError.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5, category = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tx.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price, product.Quantity, product.Category,
	)

	model, err := scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, &e.NameConflictError{Name: product.Name}
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ProductToEntity(model), nil
}

// FindByID возвращает товар или (nil, nil), если записи нет.
func (p *ProductRepo) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	return p.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// FindByName ищет товар по имени без учета регистра.
func (p *ProductRepo) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	return p.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE LOWER(name) = LOWER($1)`, name)
}

// FindAll возвращает все товары в порядке вставки.
func (p *ProductRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	return p.findMany(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// FindByCategory возвращает товары категории; сравнение без учета регистра.
func (p *ProductRepo) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(category) = LOWER($1) ORDER BY id`
	return p.findMany(ctx, query, category)
}

// FindByPriceBetween возвращает товары с ценой в диапазоне [min, max] включительно.
func (p *ProductRepo) FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE price BETWEEN $1 AND $2 ORDER BY id`
	return p.findMany(ctx, query, min, max)
}

// FindLowStock возвращает товары с количеством строго меньше порога.
func (p *ProductRepo) FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE quantity < $1 ORDER BY id`
	return p.findMany(ctx, query, threshold)
}

// SearchByKeyword ищет подстроку в имени или описании без учета регистра.
func (p *ProductRepo) SearchByKeyword(ctx context.Context, keyword string) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE LOWER(name) LIKE '%' || LOWER($1) || '%'
		   OR LOWER(description) LIKE '%' || LOWER($1) || '%'
		ORDER BY id`
	return p.findMany(ctx, query, keyword)
}

func (p *ProductRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

// DeleteByID удаляет товар; отсутствие строки не является ошибкой,
// проверка существования — на вызывающей стороне.
func (p *ProductRepo) DeleteByID(ctx context.Context, id int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *ProductRepo) findOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := scanProduct(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ProductToEntity(model), nil
}

func (p *ProductRepo) findMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		var model converter.ProductModel
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Description, &model.Price,
			&model.Quantity, &model.Category, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ProductToArrEntity(models), nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Description, &model.Price,
		&model.Quantity, &model.Category, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// postgresDuplicate распознает нарушение уникального ограничения (SQLSTATE 23505).
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
