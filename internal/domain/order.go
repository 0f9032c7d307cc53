package domain

import (
	"time"

	"github.com/DRSN-tech/storefront/pkg/money"
)

// Order — неизменяемая запись о заказе. Создаётся вместе со всеми позициями в одной транзакции.
type Order struct {
	ID              int64
	PurchaserID     string
	PurchaserHandle *string
	Total           int64 // Сумма позиций: UnitPrice * Qty, в копейках
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem — позиция заказа с ценой, зафиксированной в момент покупки.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Qty       int64
	UnitPrice int64
	Title     string // Только для отображения, в заказе не хранится
}

func NewOrderItem(productID, qty, unitPrice int64, title string) OrderItem {
	return OrderItem{
		ProductID: productID,
		Qty:       qty,
		UnitPrice: unitPrice,
		Title:     title,
	}
}

// LineTotal возвращает стоимость позиции.
func (i OrderItem) LineTotal() (int64, error) {
	return money.LineTotal(i.UnitPrice, i.Qty)
}

// NewOrder собирает заказ и считает итог по позициям.
func NewOrder(purchaserID string, purchaserHandle *string, items []OrderItem) (*Order, error) {
	total, err := SumItems(items)
	if err != nil {
		return nil, err
	}

	return &Order{
		PurchaserID:     purchaserID,
		PurchaserHandle: purchaserHandle,
		Total:           total,
		Items:           items,
	}, nil
}

// SumItems считает сумму позиций с проверкой переполнения.
func SumItems(items []OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		line, err := item.LineTotal()
		if err != nil {
			return 0, err
		}

		total, err = money.Add(total, line)
		if err != nil {
			return 0, err
		}
	}

	return total, nil
}
