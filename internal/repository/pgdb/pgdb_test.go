package pgdb_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Интеграционные тесты запускаются только при заданном TEST_DATABASE_URL (postgres://...).
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	m, err := migrate.New("file://../../../db/migrations", dsn)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	_, _ = m.Close()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(),
		`TRUNCATE order_items, orders, products, operators RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	return pool
}

type pgEnv struct {
	pool      *pgxpool.Pool
	products  *pgdb.ProductRepo
	orders    *pgdb.OrderRepo
	operators *pgdb.OperatorRepo
	tx        *pgdb.Transactor
}

func newPgEnv(t *testing.T) *pgEnv {
	pool := setupDB(t)
	return &pgEnv{
		pool:      pool,
		products:  pgdb.NewProductRepo(pool, converter.NewProductConverterImpl()),
		orders:    pgdb.NewOrderRepo(pool, converter.NewOrderConverterImpl()),
		operators: pgdb.NewOperatorRepo(pool, converter.NewOperatorConverterImpl()),
		tx:        pgdb.NewTransactor(pool, logger.NewNopLogger()),
	}
}

func (env *pgEnv) checkout() *usecase.CheckoutUseCase {
	return usecase.NewCheckoutUC(env.tx, env.products, env.orders, nopCache{}, nopNotifier{}, nopRecorder{}, logger.NewNopLogger())
}

type nopCache struct{}

func (nopCache) GetCatalog(context.Context) ([]usecase.CatalogItem, error)     { return nil, e.ErrCacheMiss }
func (nopCache) Generation(context.Context) (int64, error)                     { return 0, nil }
func (nopCache) SetCatalog(context.Context, int64, []usecase.CatalogItem) error { return nil }
func (nopCache) InvalidateCatalog(context.Context) error                       { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifyOrderPlaced(*domain.OrderPlaced) {}

type nopRecorder struct{}

func (nopRecorder) ObserveCheckout(string, time.Duration) {}

func TestProductRepoCRUD(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()

	ref := "product-a.png"
	p, err := env.products.Create(ctx, domain.NewProduct("Tea", 550, 3, &ref))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	price := int64(600)
	updated, err := env.products.Update(ctx, p.ID, usecase.ProductPatch{Price: &price, ClearImage: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 600 || updated.ImageRef != nil || updated.Stock != 3 || updated.UpdatedAt == nil {
		t.Fatalf("unexpected product %+v", updated)
	}

	if _, err := env.products.Update(ctx, 999, usecase.ProductPatch{Price: &price}); !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	off := false
	other, _ := env.products.Create(ctx, domain.NewProduct("Mug", 100, 1, nil))
	if _, err := env.products.Update(ctx, other.ID, usecase.ProductPatch{IsActive: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, _ := env.products.ListActive(ctx)
	all, _ := env.products.ListAll(ctx)
	if len(active) != 1 || len(all) != 2 {
		t.Fatalf("active=%d all=%d", len(active), len(all))
	}
}

func TestCheckoutAgainstPostgres(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()
	p, _ := env.products.Create(ctx, domain.NewProduct("A", 550, 3, nil))
	uc := env.checkout()

	res, err := uc.PlaceOrder(ctx, &usecase.PlaceOrderReq{PurchaserID: "1", Items: []usecase.CartLine{{ProductID: p.ID, Qty: 2}}})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Total != 1100 {
		t.Fatalf("total = %d", res.Total)
	}

	_, err = uc.PlaceOrder(ctx, &usecase.PlaceOrderReq{PurchaserID: "2", Items: []usecase.CartLine{{ProductID: p.ID, Qty: 2}}})
	if !errors.Is(err, e.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	got, _ := env.products.GetByID(ctx, p.ID)
	if got.Stock != 1 {
		t.Fatalf("stock = %d, want 1", got.Stock)
	}

	order, err := env.orders.GetByID(ctx, res.OrderID)
	if err != nil || order.Items[0].UnitPrice != 550 || order.Items[0].Title != "A" {
		t.Fatalf("unexpected order %+v %v", order, err)
	}

	// Журнал заказов только на добавление
	if _, err := env.pool.Exec(ctx, `UPDATE orders SET total = 0 WHERE id = $1`, res.OrderID); err == nil {
		t.Fatalf("orders must reject updates")
	}
	if _, err := env.pool.Exec(ctx, `DELETE FROM order_items`); err == nil {
		t.Fatalf("order items must reject deletes")
	}
}

func TestCheckoutConcurrentAgainstPostgres(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()
	p, _ := env.products.Create(ctx, domain.NewProduct("A", 100, 10, nil))
	uc := env.checkout()

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.PlaceOrder(ctx, &usecase.PlaceOrderReq{PurchaserID: "u", Items: []usecase.CartLine{{ProductID: p.ID, Qty: 3}}})
			if err != nil {
				if !errors.Is(err, e.ErrOutOfStock) {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			mu.Lock()
			success++
			mu.Unlock()
		}()
	}
	wg.Wait()

	got, _ := env.products.GetByID(ctx, p.ID)
	if success != 3 || got.Stock != 1 {
		t.Fatalf("success=%d stock=%d, want 3 and 1", success, got.Stock)
	}
}

func TestOperatorRepoPostgres(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()

	if _, err := env.operators.Upsert(ctx, 42); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := env.operators.SetNotify(ctx, 42, false); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if err := env.operators.SetNotify(ctx, 43, false); !errors.Is(err, e.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}

	list, err := env.operators.ListNotifiable(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
}

func TestTransactorRollsBackOnPanic(t *testing.T) {
	env := newPgEnv(t)
	ctx := context.Background()

	p, err := env.products.Create(ctx, domain.NewProduct("Tea", 550, 3, nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_ = env.tx.Do(ctx, func(ctx context.Context) error {
			if err := env.products.DecrementStock(ctx, p.ID, 2); err != nil {
				return err
			}
			panic("handler bug")
		})
	}()

	if acquired := env.pool.Stat().AcquiredConns(); acquired != 0 {
		t.Fatalf("connection still held after panic: %d acquired", acquired)
	}

	// Строка не заблокирована: следующая транзакция берёт FOR UPDATE без ожидания
	lockCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err = env.tx.Do(lockCtx, func(ctx context.Context) error {
		_, err := env.products.LockActiveByIDs(ctx, []int64{p.ID})
		return err
	})
	if err != nil {
		t.Fatalf("row lock after panic: %v", err)
	}

	got, err := env.products.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 3 {
		t.Fatalf("stock = %d after panic, want 3", got.Stock)
	}
}
