package domain

import "time"

// OrderPlaced — событие о зафиксированном заказе, уходит в уведомления после коммита.
type OrderPlaced struct {
	OrderID         int64             `json:"order_id"`
	PurchaserID     string            `json:"purchaser_id"`
	PurchaserHandle *string           `json:"purchaser_handle,omitempty"`
	Total           int64             `json:"total"`
	Lines           []OrderPlacedLine `json:"lines"`
	CreatedAt       time.Time         `json:"created_at"`
}

type OrderPlacedLine struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Qty       int64  `json:"qty"`
	UnitPrice int64  `json:"unit_price"`
}

func NewOrderPlaced(order *Order) *OrderPlaced {
	lines := make([]OrderPlacedLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderPlacedLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}

	return &OrderPlaced{
		OrderID:         order.ID,
		PurchaserID:     order.PurchaserID,
		PurchaserHandle: order.PurchaserHandle,
		Total:           order.Total,
		Lines:           lines,
		CreatedAt:       order.CreatedAt,
	}
}
