package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
)

func seedProduct(t *testing.T, store *Store, price, stock int64) *domain.Product {
	t.Helper()
	p, err := NewProductRepo(store).Create(context.Background(), domain.NewProduct("Tea", price, stock, nil))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestDoRollsBackOnError(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	orders := NewOrderRepo(store)
	p := seedProduct(t, store, 550, 3)

	boom := errors.New("boom")
	err := store.Do(context.Background(), func(ctx context.Context) error {
		if err := products.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		if _, err := orders.Create(ctx, &domain.Order{PurchaserID: "1", Total: 1100}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Stock != 3 {
		t.Fatalf("stock = %d after rollback, want 3", got.Stock)
	}
	recent, _ := orders.ListRecent(context.Background(), 10)
	if len(recent) != 0 {
		t.Fatalf("expected no orders after rollback, got %d", len(recent))
	}
	if store.Commits() != 0 {
		t.Fatalf("failed transaction must not count as a commit, got %d", store.Commits())
	}
}

func TestDoRollsBackOnPanic(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	p := seedProduct(t, store, 550, 3)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = store.Do(context.Background(), func(ctx context.Context) error {
			if err := products.DecrementStock(ctx, p.ID, 2); err != nil {
				return err
			}
			panic("handler bug")
		})
	}()

	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Stock != 3 {
		t.Fatalf("stock = %d after panic, want 3", got.Stock)
	}

	// Хранилище не осталось заблокированным
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := store.Do(ctx, func(ctx context.Context) error {
		return products.DecrementStock(ctx, p.ID, 1)
	}); err != nil {
		t.Fatalf("next transaction: %v", err)
	}
}

func TestDoNestedReusesTransaction(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	p := seedProduct(t, store, 100, 5)

	err := store.Do(context.Background(), func(ctx context.Context) error {
		return store.Do(ctx, func(ctx context.Context) error {
			return products.DecrementStock(ctx, p.ID, 1)
		})
	})
	if err != nil {
		t.Fatalf("nested Do: %v", err)
	}

	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Stock != 4 {
		t.Fatalf("stock = %d, want 4", got.Stock)
	}
}

func TestDoCancelledBeforeCommit(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	p := seedProduct(t, store, 100, 5)

	ctx, cancel := context.WithCancel(context.Background())
	err := store.Do(ctx, func(ctx context.Context) error {
		if err := products.DecrementStock(ctx, p.ID, 5); err != nil {
			return err
		}
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	got, _ := products.GetByID(context.Background(), p.ID)
	if got.Stock != 5 {
		t.Fatalf("stock = %d, want 5", got.Stock)
	}
}

func TestStockOperationsRequireTransaction(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	p := seedProduct(t, store, 100, 5)

	if err := products.DecrementStock(context.Background(), p.ID, 1); !errors.Is(err, e.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if _, err := products.LockActiveByIDs(context.Background(), []int64{p.ID}); !errors.Is(err, e.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestDecrementStockIsConditional(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	p := seedProduct(t, store, 100, 2)

	err := store.Do(context.Background(), func(ctx context.Context) error {
		return products.DecrementStock(ctx, p.ID, 3)
	})
	if !errors.Is(err, e.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestLockActiveByIDsSkipsInactive(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	active := seedProduct(t, store, 100, 1)
	inactive := seedProduct(t, store, 100, 1)

	off := false
	if _, err := products.Update(context.Background(), inactive.ID, usecase.ProductPatch{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	var locked []domain.Product
	err := store.Do(context.Background(), func(ctx context.Context) error {
		var err error
		locked, err = products.LockActiveByIDs(ctx, []int64{inactive.ID, active.ID, 999})
		return err
	})
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if len(locked) != 1 || locked[0].ID != active.ID {
		t.Fatalf("unexpected locked set %+v", locked)
	}
}

func TestOrderRepoKeepsFrozenPrices(t *testing.T) {
	store := NewStore()
	products := NewProductRepo(store)
	orders := NewOrderRepo(store)
	p := seedProduct(t, store, 550, 3)

	order, err := domain.NewOrder("1", nil, []domain.OrderItem{domain.NewOrderItem(p.ID, 2, p.Price, p.Title)})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	created, err := orders.Create(context.Background(), order)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	newPrice := int64(999)
	if _, err := products.Update(context.Background(), p.ID, usecase.ProductPatch{Price: &newPrice}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	// Изменение возвращённой копии не должно попасть в хранилище
	created.Items[0].UnitPrice = 1

	stored, err := orders.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Total != 1100 || stored.Items[0].UnitPrice != 550 || stored.Items[0].Title != "Tea" {
		t.Fatalf("stored order changed: %+v", stored)
	}

	if _, err := orders.GetByID(context.Background(), 12345); !errors.Is(err, e.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOperatorRepo(t *testing.T) {
	store := NewStore()
	repo := NewOperatorRepo(store)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, 10); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.Upsert(ctx, 20); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.SetNotify(ctx, 10, false); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if err := repo.SetNotify(ctx, 30, false); !errors.Is(err, e.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}

	list, err := repo.ListNotifiable(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ChatID != 20 {
		t.Fatalf("unexpected notifiable operators %+v", list)
	}

	// Повторная регистрация снова включает уведомления
	if _, err := repo.Upsert(ctx, 10); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	list, _ = repo.ListNotifiable(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 notifiable operators, got %d", len(list))
	}
}

func TestCatalogCacheExpiry(t *testing.T) {
	cache := NewCatalogCache(0)
	ctx := context.Background()

	_ = cache.SetCatalog(ctx, 0, []usecase.CatalogItem{{ID: 1}})
	if _, err := cache.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("disabled cache must always miss, got %v", err)
	}

	cache = NewCatalogCache(time.Minute)
	_ = cache.SetCatalog(ctx, 0, []usecase.CatalogItem{{ID: 1}})
	items, err := cache.GetCatalog(ctx)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected hit, got %v %v", items, err)
	}

	_ = cache.InvalidateCatalog(ctx)
	if _, err := cache.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected miss after invalidation, got %v", err)
	}
}

func TestCatalogCacheRejectsStaleGeneration(t *testing.T) {
	cache := NewCatalogCache(time.Minute)
	ctx := context.Background()

	gen, _ := cache.Generation(ctx)
	_ = cache.InvalidateCatalog(ctx)

	_ = cache.SetCatalog(ctx, gen, []usecase.CatalogItem{{ID: 1, Stock: 3}})
	if _, err := cache.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("list read before invalidation must not be stored, got %v", err)
	}

	fresh, _ := cache.Generation(ctx)
	if fresh != gen+1 {
		t.Fatalf("generation = %d, want %d", fresh, gen+1)
	}
	_ = cache.SetCatalog(ctx, fresh, []usecase.CatalogItem{{ID: 1, Stock: 1}})
	items, err := cache.GetCatalog(ctx)
	if err != nil || len(items) != 1 || items[0].Stock != 1 {
		t.Fatalf("expected fresh list, got %v %v", items, err)
	}
}

func TestSeedDemoCatalogIsIdempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := SeedDemoCatalog(ctx, store); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := SeedDemoCatalog(ctx, store); err != nil {
		t.Fatalf("seed again: %v", err)
	}

	all, _ := NewProductRepo(store).ListAll(ctx)
	if len(all) != 5 {
		t.Fatalf("expected 5 demo products, got %d", len(all))
	}
}
