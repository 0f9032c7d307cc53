package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// CatalogUseCase обслуживает витрину: список активных товаров, просмотр заказа и выдачу изображений.
type CatalogUseCase struct {
	productRepo   ProductRepository
	orderRepo     OrderRepository
	cache         CatalogCache
	imagesInfra   ImagesInfra // nil, если хранилище изображений отключено
	logger        logger.Logger
	publicBaseURL string
}

func NewCatalogUC(
	productRepo ProductRepository,
	orderRepo OrderRepository,
	cache CatalogCache,
	imagesInfra ImagesInfra,
	logger logger.Logger,
	publicBaseURL string,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		cache:         cache,
		imagesInfra:   imagesInfra,
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// ListActiveProducts возвращает активные товары по возрастанию id. Сначала смотрит в кэш.
func (c *CatalogUseCase) ListActiveProducts(ctx context.Context) ([]CatalogProduct, error) {
	const op = "CatalogUseCase.ListActiveProducts"

	items, err := c.cache.GetCatalog(ctx)
	if err == nil {
		return c.toCatalogProducts(items), nil
	}
	if !errors.Is(err, e.ErrCacheMiss) {
		c.logger.Warnf("Catalog cache read failed: %v", e.Wrap(op, err))
	}

	// Поколение читается до товаров: инвалидация после чтения не даст записать устаревший список
	gen, genErr := c.cache.Generation(ctx)
	if genErr != nil {
		c.logger.Warnf("Catalog cache generation read failed: %v", e.Wrap(op, genErr))
	}

	products, err := c.productRepo.ListActive(ctx)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	items = make([]CatalogItem, 0, len(products))
	for _, p := range products {
		items = append(items, CatalogItem{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Stock:    p.Stock,
			ImageRef: p.ImageRef,
		})
	}

	// Фоновое заполнение кэша
	if genErr == nil {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := c.cache.SetCatalog(bgCtx, gen, items); err != nil {
				c.logger.Warnf("Failed to cache catalog in background: %v", e.Wrap(op, err))
			}
		}()
	}

	return c.toCatalogProducts(items), nil
}

// GetOrder возвращает зафиксированный заказ вместе с позициями.
func (c *CatalogUseCase) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "CatalogUseCase.GetOrder"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrOrderNotFound)
	}

	order, err := c.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrOrderNotFound) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Internal(op, err)
	}

	return order, nil
}

// OpenImage открывает изображение товара по ключу. Вызывающий закрывает Body.
func (c *CatalogUseCase) OpenImage(ctx context.Context, ref string) (*domain.ImageObject, error) {
	const op = "CatalogUseCase.OpenImage"

	if c.imagesInfra == nil {
		return nil, e.Wrap(op, e.ErrImagesDisabled)
	}

	if strings.TrimSpace(ref) == "" || strings.Contains(ref, "..") {
		return nil, e.Wrap(op, e.ErrImageNotFound)
	}

	obj, err := c.imagesInfra.OpenImage(ctx, ref)
	if err != nil {
		if errors.Is(err, e.ErrImageNotFound) {
			return nil, e.Wrap(op, err)
		}
		return nil, e.Internal(op, err)
	}

	return obj, nil
}

// ImageURL строит публичную ссылку на изображение товара.
func (c *CatalogUseCase) ImageURL(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}

	u := c.publicBaseURL + "/images/" + url.PathEscape(*ref)
	return &u
}

func (c *CatalogUseCase) toCatalogProducts(items []CatalogItem) []CatalogProduct {
	result := make([]CatalogProduct, 0, len(items))
	for _, item := range items {
		result = append(result, CatalogProduct{
			ID:       item.ID,
			Title:    item.Title,
			Price:    item.Price,
			Stock:    item.Stock,
			ImageURL: c.ImageURL(item.ImageRef),
		})
	}

	return result
}
