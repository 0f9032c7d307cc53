package domain

import "time"

// Operator — чат оператора магазина, куда приходят уведомления о заказах.
type Operator struct {
	ChatID    int64
	Notify    bool
	CreatedAt time.Time
}
