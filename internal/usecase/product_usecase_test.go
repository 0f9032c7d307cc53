package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/memory"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

type fakeImages struct {
	mu        sync.Mutex
	objects   map[string][]byte
	cleaned   []string
	uploadErr error
	seq       int
}

func newFakeImages() *fakeImages {
	return &fakeImages{objects: make(map[string][]byte)}
}

func (f *fakeImages) UploadImage(_ context.Context, req *usecase.UploadImageReq) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.seq++
	key := req.Prefix + "-" + string(rune('a'+f.seq-1)) + ".png"
	f.objects[key] = req.Image.Data
	return key, nil
}

func (f *fakeImages) OpenImage(_ context.Context, key string) (*domain.ImageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, e.ErrImageNotFound
	}
	return &domain.ImageObject{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data)), ContentType: "image/png"}, nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.objects, k)
	}
	f.cleaned = append(f.cleaned, keys...)
}

type failingProducts struct {
	*memory.ProductRepo
}

func (f failingProducts) Create(context.Context, *domain.Product) (*domain.Product, error) {
	return nil, errors.New("insert failed")
}

func newProductUC(store *memory.Store, images usecase.ImagesInfra, cache usecase.CatalogCache) *usecase.ProductUseCase {
	return usecase.NewProductUC(
		memory.NewProductRepo(store),
		memory.NewOrderRepo(store),
		images,
		cache,
		logger.NewNopLogger(),
	)
}

func pngImage() *usecase.ProductImage {
	return usecase.NewProductImage([]byte("\x89PNG"), "image/png", 4, "tea.png")
}

func TestCreateProduct(t *testing.T) {
	store := memory.NewStore()
	images := newFakeImages()
	uc := newProductUC(store, images, memory.NewCatalogCache(time.Minute))

	p, err := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{
		Title: "  Tea ", Price: 550, Stock: 3, Image: pngImage(),
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if p.ID == 0 || p.Title != "Tea" || !p.IsActive || p.ImageRef == nil {
		t.Fatalf("unexpected product %+v", p)
	}
	if _, ok := images.objects[*p.ImageRef]; !ok {
		t.Fatalf("image was not uploaded")
	}
}

func TestCreateProductValidation(t *testing.T) {
	uc := newProductUC(memory.NewStore(), newFakeImages(), memory.NewCatalogCache(0))

	cases := []struct {
		req  usecase.CreateProductReq
		want error
	}{
		{usecase.CreateProductReq{Title: " ", Price: 1}, e.ErrProductNameRequired},
		{usecase.CreateProductReq{Title: "Tea", Price: -1}, e.ErrInvalidPrice},
		{usecase.CreateProductReq{Title: "Tea", Price: 1, Stock: -1}, e.ErrInvalidStock},
	}
	for _, tc := range cases {
		if _, err := uc.CreateProduct(context.Background(), &tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("CreateProduct(%+v) = %v, want %v", tc.req, err, tc.want)
		}
	}
}

func TestCreateProductCleansUpImageOnInsertFailure(t *testing.T) {
	store := memory.NewStore()
	images := newFakeImages()
	uc := usecase.NewProductUC(
		failingProducts{memory.NewProductRepo(store)},
		memory.NewOrderRepo(store),
		images,
		memory.NewCatalogCache(0),
		logger.NewNopLogger(),
	)

	_, err := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{Title: "Tea", Price: 1, Image: pngImage()})
	if !errors.Is(err, e.ErrInternalServerError) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if len(images.cleaned) != 1 || len(images.objects) != 0 {
		t.Fatalf("orphaned image was not cleaned up: %+v", images.cleaned)
	}
}

func TestCreateProductWithImagesDisabled(t *testing.T) {
	uc := newProductUC(memory.NewStore(), nil, memory.NewCatalogCache(0))

	_, err := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{Title: "Tea", Price: 1, Image: pngImage()})
	if !errors.Is(err, e.ErrImagesDisabled) {
		t.Fatalf("expected ErrImagesDisabled, got %v", err)
	}

	p, err := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{Title: "Tea", Price: 1})
	if err != nil || p.ImageRef != nil {
		t.Fatalf("product without image must be created: %+v %v", p, err)
	}
}

func TestUpdateProductNeverTouchesStock(t *testing.T) {
	store := memory.NewStore()
	cache := memory.NewCatalogCache(time.Minute)
	uc := newProductUC(store, nil, cache)

	p, _ := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{Title: "Tea", Price: 550, Stock: 7})
	gen, _ := cache.Generation(context.Background())
	_ = cache.SetCatalog(context.Background(), gen, []usecase.CatalogItem{{ID: p.ID}})

	title := "Green tea"
	price := int64(600)
	off := false
	updated, err := uc.UpdateProduct(context.Background(), &usecase.UpdateProductReq{ID: p.ID, Title: &title, Price: &price, IsActive: &off})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Title != title || updated.Price != 600 || updated.IsActive || updated.Stock != 7 {
		t.Fatalf("unexpected product %+v", updated)
	}
	if _, err := cache.GetCatalog(context.Background()); !errors.Is(err, e.ErrCacheMiss) {
		t.Fatalf("update must invalidate the catalog cache")
	}

	if _, err := uc.UpdateProduct(context.Background(), &usecase.UpdateProductReq{ID: p.ID}); !errors.Is(err, e.ErrNothingToUpdate) {
		t.Fatalf("expected ErrNothingToUpdate, got %v", err)
	}
	if _, err := uc.UpdateProduct(context.Background(), &usecase.UpdateProductReq{ID: 999, Price: &price}); !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestSetAndClearProductImage(t *testing.T) {
	store := memory.NewStore()
	images := newFakeImages()
	uc := newProductUC(store, images, memory.NewCatalogCache(0))

	p, _ := uc.CreateProduct(context.Background(), &usecase.CreateProductReq{Title: "Tea", Price: 1, Image: pngImage()})
	oldRef := *p.ImageRef

	p, err := uc.SetProductImage(context.Background(), p.ID, pngImage())
	if err != nil {
		t.Fatalf("SetProductImage: %v", err)
	}
	if *p.ImageRef == oldRef {
		t.Fatalf("image ref was not replaced")
	}
	if len(images.cleaned) != 1 || images.cleaned[0] != oldRef {
		t.Fatalf("old image must be removed, cleaned=%v", images.cleaned)
	}

	newRef := *p.ImageRef
	p, err = uc.ClearProductImage(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("ClearProductImage: %v", err)
	}
	if p.ImageRef != nil || images.cleaned[len(images.cleaned)-1] != newRef {
		t.Fatalf("image was not cleared: %+v, cleaned=%v", p, images.cleaned)
	}

	if _, err := uc.SetProductImage(context.Background(), 999, pngImage()); !errors.Is(err, e.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestListRecentOrdersLimit(t *testing.T) {
	env := newCheckoutEnv(t)
	a := env.addProduct(t, "A", 1, 100)
	for i := 0; i < 12; i++ {
		if _, err := env.uc.PlaceOrder(context.Background(), placeReq("1", line(a, 1))); err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
	}

	uc := newProductUC(env.store, nil, memory.NewCatalogCache(0))

	orders, err := uc.ListRecentOrders(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRecentOrders: %v", err)
	}
	if len(orders) != 10 || orders[0].ID < orders[1].ID {
		t.Fatalf("expected 10 newest-first orders, got %d", len(orders))
	}
	if orders[0].Items[0].Title != "A" {
		t.Fatalf("order items must carry product titles")
	}

	if _, err := uc.ListRecentOrders(context.Background(), -1); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	all, _ := uc.ListRecentOrders(context.Background(), 500)
	if len(all) != 12 {
		t.Fatalf("expected 12 orders, got %d", len(all))
	}
}
