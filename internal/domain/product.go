package domain

import "time"

// Product описывает товар каталога
type Product struct {
	ID        int64
	Title     string
	Price     int64 // Цена хранится в копейках
	Stock     int64 // Количество доступных к продаже единиц, никогда не уходит в минус
	IsActive  bool
	ImageRef  *string // Ключ объекта в хранилище изображений
	CreatedAt time.Time
	UpdatedAt *time.Time
}

func NewProduct(title string, price int64, stock int64, imageRef *string) *Product {
	return &Product{
		Title:    title,
		Price:    price,
		Stock:    stock,
		IsActive: true,
		ImageRef: imageRef,
	}
}

// HasStock сообщает, хватает ли остатка на qty единиц.
func (p *Product) HasStock(qty int64) bool {
	return qty > 0 && p.Stock >= qty
}
