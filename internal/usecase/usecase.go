package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

type CheckoutUC interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error)
}

type CatalogUC interface {
	ListActiveProducts(ctx context.Context) ([]CatalogProduct, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	OpenImage(ctx context.Context, ref string) (*domain.ImageObject, error)
}

type ProductAdminUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	SetProductImage(ctx context.Context, id int64, image *ProductImage) (*domain.Product, error)
	ClearProductImage(ctx context.Context, id int64) (*domain.Product, error)
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)
}

type OperatorUC interface {
	RegisterOperator(ctx context.Context, chatID int64) (*domain.Operator, error)
	MuteOperator(ctx context.Context, chatID int64) error
	ListNotifiable(ctx context.Context) ([]domain.Operator, error)
}
