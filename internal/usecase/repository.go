package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// Transactor выполняет fn как одну атомарную единицу. Репозитории внутри fn видят транзакцию через ctx.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)

	// LockActiveByIDs читает активные товары и блокирует их до конца транзакции. Порядок по возрастанию id.
	LockActiveByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	// DecrementStock уменьшает остаток, только если его хватает; иначе e.ErrOutOfStock.
	DecrementStock(ctx context.Context, id int64, qty int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Order, error)
}

type OperatorRepository interface {
	Upsert(ctx context.Context, chatID int64) (*domain.Operator, error)
	SetNotify(ctx context.Context, chatID int64, notify bool) error
	ListNotifiable(ctx context.Context) ([]domain.Operator, error)
}

// CatalogCache хранит готовый список активных товаров. При промахе возвращает e.ErrCacheMiss.
// InvalidateCatalog увеличивает поколение кэша; SetCatalog с устаревшим поколением ничего не записывает.
type CatalogCache interface {
	GetCatalog(ctx context.Context) ([]CatalogItem, error)
	Generation(ctx context.Context) (int64, error)
	SetCatalog(ctx context.Context, gen int64, items []CatalogItem) error
	InvalidateCatalog(ctx context.Context) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image, data []byte) (string, error)
	Get(ctx context.Context, key string) (*domain.ImageObject, error)
	Delete(ctx context.Context, key string) error
}
