package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

func TestCatalogConverterRoundTrip(t *testing.T) {
	ref := "product-a.png"
	conv := converter.NewCatalogConverterImpl()
	items := []usecase.CatalogItem{{ID: 1, Title: "Tea", Price: 550, Stock: 3, ImageRef: &ref}, {ID: 2, Title: "Mug"}}

	back := conv.ToArrUseCase(conv.ToArrRedisModel(items))
	if len(back) != 2 || back[0].Title != "Tea" || *back[0].ImageRef != ref || back[1].ImageRef != nil {
		t.Fatalf("unexpected items %+v", back)
	}
}

// Тест с живым Redis запускается только при заданном TEST_REDIS_ADDR.
func TestCacheRepoAgainstRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}

	client := clients.NewRedisClient(&cfg.RedisCfg{Addr: addr, DialTimeout: time.Second, Timeout: time.Second})
	t.Cleanup(func() { _ = client.Close(context.Background()) })
	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	repo := NewCacheRepo(client, converter.NewCatalogConverterImpl(), time.Minute, logger.NewNopLogger())
	_ = repo.InvalidateCatalog(ctx)

	if _, err := repo.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	gen, err := repo.Generation(ctx)
	if err != nil {
		t.Fatalf("generation: %v", err)
	}
	if err := repo.SetCatalog(ctx, gen, []usecase.CatalogItem{{ID: 1, Title: "Tea", Price: 550, Stock: 3}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	items, err := repo.GetCatalog(ctx)
	if err != nil || len(items) != 1 || items[0].Stock != 3 {
		t.Fatalf("unexpected %+v %v", items, err)
	}

	if err := client.Client.Set(ctx, repo.catalogKey(), "{broken", time.Minute).Err(); err != nil {
		t.Fatalf("set raw: %v", err)
	}
	if _, err := repo.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("broken value must be a miss, got %v", err)
	}

	// Список, прочитанный до инвалидации, не записывается
	stale, _ := repo.Generation(ctx)
	if err := repo.InvalidateCatalog(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := repo.SetCatalog(ctx, stale, []usecase.CatalogItem{{ID: 1, Stock: 3}}); err != nil {
		t.Fatalf("stale set: %v", err)
	}
	if _, err := repo.GetCatalog(ctx); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("stale generation must not be cached, got %v", err)
	}
}
