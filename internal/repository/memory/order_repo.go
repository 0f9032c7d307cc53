package memory

import (
	"context"
	"sort"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
)

// OrderRepo — журнал заказов только на добавление.
type OrderRepo struct {
	store *Store
}

func NewOrderRepo(store *Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var created domain.Order
	err := o.store.run(ctx, func() error {
		o.store.nextOrderID++
		created = cloneOrder(*order)
		created.ID = o.store.nextOrderID
		created.PurchaserHandle = cloneString(order.PurchaserHandle)
		created.CreatedAt = o.store.now()

		for i := range created.Items {
			o.store.nextItemID++
			created.Items[i].ID = o.store.nextItemID
			created.Items[i].OrderID = created.ID
			created.Items[i].Title = ""
		}

		o.store.orders = append(o.store.orders, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := cloneOrder(created)
	return &result, nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order domain.Order
	err := o.store.run(ctx, func() error {
		i := sort.Search(len(o.store.orders), func(i int) bool { return o.store.orders[i].ID >= id })
		if i == len(o.store.orders) || o.store.orders[i].ID != id {
			return e.ErrOrderNotFound
		}

		order = o.withTitles(o.store.orders[i])
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// ListRecent возвращает последние заказы, новые первыми.
func (o *OrderRepo) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	var result []domain.Order
	err := o.store.run(ctx, func() error {
		result = make([]domain.Order, 0, limit)
		for i := len(o.store.orders) - 1; i >= 0 && len(result) < limit; i-- {
			result = append(result, o.withTitles(o.store.orders[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// withTitles подставляет текущие названия товаров. Цены в позициях остаются зафиксированными.
func (o *OrderRepo) withTitles(order domain.Order) domain.Order {
	order = cloneOrder(order)
	for i := range order.Items {
		if p, ok := o.store.products[order.Items[i].ProductID]; ok {
			order.Items[i].Title = p.Title
		}
	}
	return order
}

var _ usecase.OrderRepository = (*OrderRepo)(nil)
