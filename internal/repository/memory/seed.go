package memory

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// SeedDemoCatalog заполняет пустое хранилище демонстрационным каталогом для локального запуска.
func SeedDemoCatalog(ctx context.Context, store *Store) error {
	demo := []*domain.Product{
		domain.NewProduct("Green tea Sencha, 100 g", 55000, 50, nil),
		domain.NewProduct("French press 600 ml", 250000, 5, nil),
		domain.NewProduct("Ceramic teapot", 320000, 6, nil),
		domain.NewProduct("Paper filters, 100 pcs", 32000, 20, nil),
		domain.NewProduct("Coffee beans Arabica, 250 g", 32000, 20, nil),
	}

	repo := NewProductRepo(store)
	return store.Do(ctx, func(ctx context.Context) error {
		existing, err := repo.ListAll(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		for _, p := range demo {
			if _, err := repo.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
