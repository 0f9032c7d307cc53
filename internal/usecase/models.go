package usecase

import "time"

// CHECKOUT

// PlaceOrderReq — корзина покупателя.
type PlaceOrderReq struct {
	PurchaserID     string
	PurchaserHandle *string
	Items           []CartLine
}

// CartLine — строка корзины: товар и количество.
type CartLine struct {
	ProductID int64
	Qty       int64
}

// PlaceOrderRes — результат успешного оформления заказа.
type PlaceOrderRes struct {
	OrderID   int64
	Total     int64
	CreatedAt time.Time
}

// Исходы оформления заказа для метрик.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeOutOfStock = "out_of_stock"
	OutcomeError      = "error"
)

// CATALOG

// CatalogItem — запись каталога в том виде, в котором она лежит в кэше.
type CatalogItem struct {
	ID       int64
	Title    string
	Price    int64
	Stock    int64
	ImageRef *string
}

// CatalogProduct — товар витрины со ссылкой на изображение.
type CatalogProduct struct {
	ID       int64
	Title    string
	Price    int64
	Stock    int64
	ImageURL *string
}

// PRODUCT ADMINISTRATION

// CreateProductReq — запрос на добавление товара.
type CreateProductReq struct {
	Title string
	Price int64
	Stock int64
	Image *ProductImage
}

// UpdateProductReq — частичное редактирование товара. Остаток здесь не меняется.
type UpdateProductReq struct {
	ID       int64
	Title    *string
	Price    *int64
	IsActive *bool
}

// ProductPatch — набор изменений, который репозиторий применяет к строке товара.
type ProductPatch struct {
	Title      *string
	Price      *int64
	IsActive   *bool
	ImageRef   *string
	ClearImage bool
}

func (p ProductPatch) IsEmpty() bool {
	return p.Title == nil && p.Price == nil && p.IsActive == nil && p.ImageRef == nil && !p.ClearImage
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// INFRASTRUCTURE

// UploadImageReq — запрос на загрузку изображения товара.
type UploadImageReq struct {
	Prefix string
	Image  ProductImage
}

// MAPPERS

func NewPlaceOrderRes(orderID, total int64, createdAt time.Time) *PlaceOrderRes {
	return &PlaceOrderRes{
		OrderID:   orderID,
		Total:     total,
		CreatedAt: createdAt,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(prefix string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		Prefix: prefix,
		Image:  image,
	}
}
