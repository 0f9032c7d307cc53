package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID        int64      `db:"id"`
	Title     string     `db:"title"`
	Price     int64      `db:"price"`
	Stock     int64      `db:"stock"`
	IsActive  bool       `db:"is_active"`
	ImageRef  *string    `db:"image_ref"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// OrderModel представляет запись таблицы orders в PostgreSQL.
type OrderModel struct {
	ID              int64     `db:"id"`
	PurchaserID     string    `db:"purchaser_id"`
	PurchaserHandle *string   `db:"purchaser_handle"`
	Total           int64     `db:"total"`
	CreatedAt       time.Time `db:"created_at"`
}

// OrderItemModel — позиция заказа вместе с текущим названием товара (из JOIN).
type OrderItemModel struct {
	ID        int64  `db:"id"`
	OrderID   int64  `db:"order_id"`
	ProductID int64  `db:"product_id"`
	Qty       int64  `db:"qty"`
	UnitPrice int64  `db:"unit_price"`
	Title     string `db:"title"`
}

// OperatorModel представляет запись таблицы operators в PostgreSQL.
type OperatorModel struct {
	ChatID    int64     `db:"chat_id"`
	Notify    bool      `db:"notify"`
	CreatedAt time.Time `db:"created_at"`
}
