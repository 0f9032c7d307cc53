package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const catalogModelVersion = 1

// errStaleGeneration — каталог успели инвалидировать после чтения поколения.
var errStaleGeneration = errors.New("catalog generation changed")

// CacheRepo кэширует список активных товаров в Redis одним JSON-значением.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.CatalogConverter
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.CatalogConverter,
	ttl time.Duration, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		ttl:    ttl,
		logger: logger,
	}
}

// GetCatalog возвращает закэшированный каталог или e.ErrCacheMiss.
func (c *CacheRepo) GetCatalog(ctx context.Context) ([]usecase.CatalogItem, error) {
	data, err := c.client.Client.Get(ctx, c.catalogKey()).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := c.unmarshalCatalog(data)
	if err != nil {
		// Битое значение удаляется и считается промахом
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(ctx, c.catalogKey()).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, e.ErrCacheMiss
	}

	if model.Version != catalogModelVersion {
		return nil, e.ErrCacheMiss
	}

	return c.conv.ToArrUseCase(model.Items), nil
}

// Generation возвращает счётчик инвалидаций каталога. Отсутствующий ключ — поколение 0.
func (c *CacheRepo) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, r.Nil) {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return gen, nil
}

// SetCatalog сохраняет каталог с TTL, если поколение всё ещё равно gen.
// Ключ поколения под WATCH: инвалидация между проверкой и записью отменяет запись.
func (c *CacheRepo) SetCatalog(ctx context.Context, gen int64, items []usecase.CatalogItem) error {
	data, err := json.Marshal(converter.CatalogRedisModel{
		Version: catalogModelVersion,
		Items:   c.conv.ToArrRedisModel(items),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err = c.client.Client.Watch(ctx, func(tx *r.Tx) error {
		current, err := tx.Get(ctx, c.generationKey()).Int64()
		if err != nil && !errors.Is(err, r.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe r.Pipeliner) error {
			pipe.Set(ctx, c.catalogKey(), data, c.ttl)
			return nil
		})
		return err
	}, c.generationKey())

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, r.TxFailedErr):
		c.logger.Debugf("catalog cache refill skipped: generation %d is stale", gen)
		return nil
	default:
		return e.Wrap(whereami.WhereAmI(), err)
	}
}

// InvalidateCatalog удаляет каталог и увеличивает поколение одной транзакцией.
func (c *CacheRepo) InvalidateCatalog(ctx context.Context) error {
	_, err := c.client.Client.TxPipelined(ctx, func(pipe r.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey())
		pipe.Del(ctx, c.catalogKey())
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// unmarshalCatalog десериализует JSON из кэша в модель каталога
func (c *CacheRepo) unmarshalCatalog(data []byte) (*converter.CatalogRedisModel, error) {
	var model converter.CatalogRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}

	return &model, nil
}

// catalogKey возвращает Redis-ключ каталога
func (c *CacheRepo) catalogKey() string {
	return fmt.Sprintf("catalog:active:v%d", catalogModelVersion)
}

func (c *CacheRepo) generationKey() string {
	return "catalog:active:gen"
}

var _ usecase.CatalogCache = (*CacheRepo)(nil)
