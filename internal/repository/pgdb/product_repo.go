package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, title, price, stock, is_active, image_ref, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	db   tr.Querier
	conv converter.ProductConverter
}

func NewProductRepo(db tr.Querier, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		db:   db,
		conv: conv,
	}
}

// Create добавляет товар и возвращает сохранённую запись.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (title, price, stock, is_active, image_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	model := p.conv.ToModel(product)
	rows, err := tr.QuerierFromCtx(ctx, p.db).Query(ctx, query,
		model.Title, model.Price, model.Stock, model.IsActive, model.ImageRef)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&created), nil
}

// Update применяет частичные изменения. Остаток этим методом не меняется.
func (p *ProductRepo) Update(ctx context.Context, id int64, patch usecase.ProductPatch) (*domain.Product, error) {
	query := `
		UPDATE products SET
			title      = COALESCE($2, title),
			price      = COALESCE($3, price),
			is_active  = COALESCE($4, is_active),
			image_ref  = CASE WHEN $6 THEN NULL ELSE COALESCE($5, image_ref) END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	rows, err := tr.QuerierFromCtx(ctx, p.db).Query(ctx, query,
		id, patch.Title, patch.Price, patch.IsActive, patch.ImageRef, patch.ClearImage)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&updated), nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	rows, err := tr.QuerierFromCtx(ctx, p.db).Query(ctx, query, id)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model), nil
}

// ListActive возвращает активные товары по возрастанию id.
func (p *ProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY id`)
}

func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// LockActiveByIDs берёт блокировки строк в порядке возрастания id, поэтому встречные заказы не взаимоблокируются.
// Под READ COMMITTED после ожидания блокировки строка перечитывается, и остаток всегда свежий.
func (p *ProductRepo) LockActiveByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1) AND is_active
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

// DecrementStock списывает остаток условным UPDATE: ноль затронутых строк означает нехватку.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND is_active AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.ErrOutOfStock
	}

	return nil
}

func (p *ProductRepo) list(ctx context.Context, query string) ([]domain.Product, error) {
	rows, err := tr.QuerierFromCtx(ctx, p.db).Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.ProductModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

var _ usecase.ProductRepository = (*ProductRepo)(nil)
