package memory

import (
	"context"
	"sort"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
)

// ProductRepo реализует репозиторий товаров поверх Store.
type ProductRepo struct {
	store *Store
}

func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	var created domain.Product
	err := p.store.run(ctx, func() error {
		p.store.nextProductID++
		created = *product
		created.ID = p.store.nextProductID
		created.ImageRef = cloneString(product.ImageRef)
		created.CreatedAt = p.store.now()
		created.UpdatedAt = nil
		p.store.products[created.ID] = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (p *ProductRepo) Update(ctx context.Context, id int64, patch usecase.ProductPatch) (*domain.Product, error) {
	var updated domain.Product
	err := p.store.run(ctx, func() error {
		product, ok := p.store.products[id]
		if !ok {
			return e.ErrProductNotFound
		}

		if patch.Title != nil {
			product.Title = *patch.Title
		}
		if patch.Price != nil {
			product.Price = *patch.Price
		}
		if patch.IsActive != nil {
			product.IsActive = *patch.IsActive
		}
		if patch.ImageRef != nil {
			product.ImageRef = cloneString(patch.ImageRef)
		}
		if patch.ClearImage {
			product.ImageRef = nil
		}

		now := p.store.now()
		product.UpdatedAt = &now
		p.store.products[id] = product
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var product domain.Product
	err := p.store.run(ctx, func() error {
		found, ok := p.store.products[id]
		if !ok {
			return e.ErrProductNotFound
		}
		product = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (p *ProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, true)
}

func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, false)
}

// LockActiveByIDs требует открытой транзакции: блокировкой служит семафор хранилища.
func (p *ProductRepo) LockActiveByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if !p.store.inTx(ctx) {
		return nil, e.ErrTransactionNotFound
	}

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := p.store.products[id]; ok && product.IsActive {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

// DecrementStock списывает остаток только при достаточном количестве.
func (p *ProductRepo) DecrementStock(ctx context.Context, id int64, qty int64) error {
	if !p.store.inTx(ctx) {
		return e.ErrTransactionNotFound
	}

	product, ok := p.store.products[id]
	if !ok || !product.IsActive {
		return e.ErrProductNotFound
	}
	if qty <= 0 || product.Stock < qty {
		return e.ErrOutOfStock
	}

	product.Stock -= qty
	p.store.products[id] = product
	return nil
}

func (p *ProductRepo) list(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	var result []domain.Product
	err := p.store.run(ctx, func() error {
		result = make([]domain.Product, 0, len(p.store.products))
		for _, product := range p.store.products {
			if activeOnly && !product.IsActive {
				continue
			}
			result = append(result, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var _ usecase.ProductRepository = (*ProductRepo)(nil)
