package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/money"
)

const (
	maxTitleLength      = 200
	defaultRecentOrders = 10
	maxRecentOrders     = 50
	productImagePrefix  = "product"
)

// ProductUseCase реализует операторские сценарии управления каталогом.
// Остаток после создания товара здесь не меняется: его списывает только оформление заказа.
type ProductUseCase struct {
	productRepo ProductRepository
	orderRepo   OrderRepository
	imagesInfra ImagesInfra // nil, если хранилище изображений отключено
	cache       CatalogCache
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	orderRepo OrderRepository,
	imagesInfra ImagesInfra,
	cache CatalogCache,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		imagesInfra: imagesInfra,
		cache:       cache,
		logger:      logger,
	}
}

// CreateProduct добавляет товар. Если передано изображение, оно загружается первым
// и удаляется в фоне, когда запись в базу не удалась.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	title, err := validateTitle(req.Title)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}
	if req.Stock < 0 {
		return nil, e.Wrap(op, e.ErrInvalidStock)
	}

	var imageRef *string
	if req.Image != nil {
		key, err := p.uploadImage(ctx, req.Image)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		imageRef = &key
	}

	product, err := p.productRepo.Create(ctx, domain.NewProduct(title, req.Price, req.Stock, imageRef))
	if err != nil {
		if imageRef != nil {
			p.logger.Warnf("Cleaning up orphaned image after insert failure. title: %s, error: %v", title, e.Wrap(op, err))
			p.imagesInfra.CleanupImages([]string{*imageRef})
		}
		return nil, e.Internal(op, err)
	}

	p.invalidate(ctx, op)
	p.logger.Infof("product created: id=%d title=%q price=%d stock=%d", product.ID, product.Title, product.Price, product.Stock)

	return product, nil
}

// UpdateProduct меняет название, цену или активность товара. Уже оформленные заказы не затрагиваются.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if req.ID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	patch := ProductPatch{Price: req.Price, IsActive: req.IsActive}
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			return nil, e.Wrap(op, err)
		}
		patch.Title = &title
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, e.Wrap(op, err)
		}
	}
	if patch.IsEmpty() {
		return nil, e.Wrap(op, e.ErrNothingToUpdate)
	}

	product, err := p.update(ctx, req.ID, patch)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidate(ctx, op)
	return product, nil
}

// SetProductImage загружает новое изображение и заменяет им старое.
func (p *ProductUseCase) SetProductImage(ctx context.Context, id int64, image *ProductImage) (*domain.Product, error) {
	const op = "ProductUseCase.SetProductImage"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}
	if image == nil {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	current, err := p.get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key, err := p.uploadImage(ctx, image)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := p.update(ctx, id, ProductPatch{ImageRef: &key})
	if err != nil {
		p.imagesInfra.CleanupImages([]string{key})
		return nil, e.Wrap(op, err)
	}

	if current.ImageRef != nil && *current.ImageRef != key {
		p.imagesInfra.CleanupImages([]string{*current.ImageRef})
	}

	p.invalidate(ctx, op)
	return product, nil
}

// ClearProductImage отвязывает изображение от товара и удаляет объект из хранилища.
func (p *ProductUseCase) ClearProductImage(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.ClearProductImage"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	current, err := p.get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := p.update(ctx, id, ProductPatch{ClearImage: true})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if current.ImageRef != nil && p.imagesInfra != nil {
		p.imagesInfra.CleanupImages([]string{*current.ImageRef})
	}

	p.invalidate(ctx, op)
	return product, nil
}

// ListAllProducts возвращает все товары, включая неактивные.
func (p *ProductUseCase) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.ListAllProducts"

	products, err := p.productRepo.ListAll(ctx)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	return products, nil
}

// ListRecentOrders возвращает последние заказы, новые первыми.
func (p *ProductUseCase) ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	const op = "ProductUseCase.ListRecentOrders"

	switch {
	case limit < 0:
		return nil, e.Wrap(op, e.ErrInvalidLimit)
	case limit == 0:
		limit = defaultRecentOrders
	case limit > maxRecentOrders:
		limit = maxRecentOrders
	}

	orders, err := p.orderRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, e.Internal(op, err)
	}

	return orders, nil
}

func (p *ProductUseCase) get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil, e.NewProductError(id, e.ErrProductNotFound)
		}
		return nil, e.Internal("get product", err)
	}

	return product, nil
}

func (p *ProductUseCase) update(ctx context.Context, id int64, patch ProductPatch) (*domain.Product, error) {
	product, err := p.productRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, e.ErrProductNotFound) {
			return nil, e.NewProductError(id, e.ErrProductNotFound)
		}
		return nil, e.Internal("update product", err)
	}

	return product, nil
}

// uploadImage сохраняет изображение товара в объектное хранилище.
func (p *ProductUseCase) uploadImage(ctx context.Context, image *ProductImage) (string, error) {
	if p.imagesInfra == nil {
		return "", e.ErrImagesDisabled
	}
	if len(image.Data) == 0 {
		return "", e.ErrNoImages
	}

	return p.imagesInfra.UploadImage(ctx, NewUploadImageReq(productImagePrefix, *image))
}

func (p *ProductUseCase) invalidate(ctx context.Context, op string) {
	if err := p.cache.InvalidateCatalog(ctx); err != nil {
		p.logger.Warnf("Failed to invalidate catalog cache: %v", e.Wrap(op, err))
	}
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return "", e.ErrProductNameRequired
	}

	return title, nil
}

func validatePrice(price int64) error {
	if price < 0 || price > money.MaxAmount {
		return e.ErrInvalidPrice
	}

	return nil
}
