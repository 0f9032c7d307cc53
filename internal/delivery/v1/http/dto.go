package http

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
)

// REQUESTS

type PlaceOrderRequest struct {
	PurchaserID     PurchaserID       `json:"purchaser_id" swaggertype:"string" example:"1001"`
	PurchaserHandle *string           `json:"purchaser_handle,omitempty" example:"alice"`
	Items           []CartLineRequest `json:"items"`
}

type CartLineRequest struct {
	ProductID int64 `json:"product_id" example:"1"`
	Qty       int64 `json:"qty" example:"2"`
}

// UpdateProductRequest — частичное редактирование; цена строкой или числом, "12.50".
type UpdateProductRequest struct {
	Title    *string      `json:"title,omitempty" example:"Green tea"`
	Price    *json.Number `json:"price,omitempty" swaggertype:"string" example:"12.50"`
	IsActive *bool        `json:"is_active,omitempty" example:"true"`
}

type RegisterOperatorRequest struct {
	ChatID int64 `json:"chat_id" example:"123456789"`
}

// RESPONSES

type PlaceOrderResponse struct {
	OrderID   int64     `json:"order_id" example:"42"`
	Total     int64     `json:"total" example:"1100"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductResponse struct {
	ID       int64   `json:"id" example:"1"`
	Title    string  `json:"title" example:"Green tea"`
	Price    int64   `json:"price" example:"550"`
	Stock    int64   `json:"stock" example:"3"`
	ImageURL *string `json:"image_url"`
}

type AdminProductResponse struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Price     int64      `json:"price"`
	Stock     int64      `json:"stock"`
	IsActive  bool       `json:"is_active"`
	ImageRef  *string    `json:"image_ref"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type OrderItemResponse struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Qty       int64  `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	PurchaserID     string              `json:"purchaser_id"`
	PurchaserHandle *string             `json:"purchaser_handle,omitempty"`
	Total           int64               `json:"total"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []OrderItemResponse `json:"items"`
}

type OperatorResponse struct {
	ChatID    int64     `json:"chat_id"`
	Notify    bool      `json:"notify"`
	CreatedAt time.Time `json:"created_at"`
}

// MAPPERS

func (p *PlaceOrderRequest) ToUseCase() *usecase.PlaceOrderReq {
	items := make([]usecase.CartLine, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, usecase.CartLine{ProductID: it.ProductID, Qty: it.Qty})
	}

	return &usecase.PlaceOrderReq{
		PurchaserID:     string(p.PurchaserID),
		PurchaserHandle: p.PurchaserHandle,
		Items:           items,
	}
}

func toProductResponses(products []usecase.CatalogProduct) []ProductResponse {
	result := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		result = append(result, ProductResponse{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Stock:    p.Stock,
			ImageURL: p.ImageURL,
		})
	}

	return result
}

func toAdminProductResponse(p *domain.Product) AdminProductResponse {
	return AdminProductResponse{
		ID:        p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Stock:     p.Stock,
		IsActive:  p.IsActive,
		ImageRef:  p.ImageRef,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAdminProductResponses(products []domain.Product) []AdminProductResponse {
	result := make([]AdminProductResponse, 0, len(products))
	for i := range products {
		result = append(result, toAdminProductResponse(&products[i]))
	}

	return result
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID: it.ProductID,
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
		})
	}

	return OrderResponse{
		ID:              o.ID,
		PurchaserID:     o.PurchaserID,
		PurchaserHandle: o.PurchaserHandle,
		Total:           o.Total,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i]))
	}

	return result
}

func toOperatorResponses(operators []domain.Operator) []OperatorResponse {
	result := make([]OperatorResponse, 0, len(operators))
	for _, op := range operators {
		result = append(result, OperatorResponse{ChatID: op.ChatID, Notify: op.Notify, CreatedAt: op.CreatedAt})
	}

	return result
}
