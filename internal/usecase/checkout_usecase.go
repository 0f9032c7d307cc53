package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/money"
)

// CheckoutUseCase оформляет заказы: проверка корзины, цены, списание остатков и запись заказа в одной транзакции.
type CheckoutUseCase struct {
	tx          Transactor
	productRepo ProductRepository
	orderRepo   OrderRepository
	cache       CatalogCache
	notifier    OrderNotifier
	recorder    CheckoutRecorder
	logger      logger.Logger
	now         func() time.Time
}

func NewCheckoutUC(
	tx Transactor,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	cache CatalogCache,
	notifier OrderNotifier,
	recorder CheckoutRecorder,
	logger logger.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		tx:          tx,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cache:       cache,
		notifier:    notifier,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// demand — суммарный спрос на один товар в корзине.
type demand struct {
	productID int64
	qty       int64
}

// PlaceOrder атомарно оформляет заказ. Ошибки: e.ErrValidation, e.ErrProductNotFound и e.ErrOutOfStock
// (с *e.ProductError для конкретного товара) либо e.ErrInternalServerError.
// Уведомление операторов уходит только после коммита и на результат не влияет.
func (c *CheckoutUseCase) PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*PlaceOrderRes, error) {
	const op = "CheckoutUseCase.PlaceOrder"
	start := c.now()

	order, err := c.placeOrder(ctx, req)
	c.recorder.ObserveCheckout(CheckoutOutcome(err), c.now().Sub(start))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша устаревших остатков
	if err := c.cache.InvalidateCatalog(ctx); err != nil {
		c.logger.Warnf("Failed to invalidate catalog cache: %v", e.Wrap(op, err))
	}

	c.notifier.NotifyOrderPlaced(domain.NewOrderPlaced(order))

	c.logger.Infof("order placed: order_id=%d purchaser=%s items=%d total=%d",
		order.ID, order.PurchaserID, len(order.Items), order.Total)

	return NewPlaceOrderRes(order.ID, order.Total, order.CreatedAt), nil
}

func (c *CheckoutUseCase) placeOrder(ctx context.Context, req *PlaceOrderReq) (*domain.Order, error) {
	// Валидация до любых обращений к хранилищу
	purchaserID, handle, demands, err := c.validate(req)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	err = c.tx.Do(ctx, func(ctx context.Context) error {
		var txErr error
		order, txErr = c.reserveAndRecord(ctx, purchaserID, handle, req.Items, demands)
		return txErr
	})
	if err != nil {
		if IsCheckoutRejection(err) {
			return nil, err
		}
		return nil, e.Internal("checkout transaction", err)
	}

	return order, nil
}

// reserveAndRecord выполняется внутри транзакции: блокирует строки товаров, проверяет их, списывает остатки и пишет заказ.
func (c *CheckoutUseCase) reserveAndRecord(
	ctx context.Context,
	purchaserID string,
	handle *string,
	lines []CartLine,
	demands []demand,
) (*domain.Order, error) {
	ids := make([]int64, 0, len(demands))
	for _, d := range demands {
		ids = append(ids, d.productID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products, err := c.productRepo.LockActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	// Сначала отсутствующие товары, затем остатки: товар, которого нет, важнее нехватки другого
	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, e.NewProductError(line.ProductID, e.ErrProductNotFound)
		}
	}

	for _, d := range demands {
		if !byID[d.productID].HasStock(d.qty) {
			return nil, e.NewProductError(d.productID, e.ErrOutOfStock)
		}
	}

	// Цены фиксируются по строкам, прочитанным в этой же транзакции
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		p := byID[line.ProductID]
		items = append(items, domain.NewOrderItem(p.ID, line.Qty, p.Price, p.Title))
	}

	order, err := domain.NewOrder(purchaserID, handle, items)
	if err != nil {
		return nil, err
	}

	// Списание в порядке возрастания id, как и блокировки
	for _, id := range ids {
		qty := demandFor(demands, id)
		if err := c.productRepo.DecrementStock(ctx, id, qty); err != nil {
			if errors.Is(err, e.ErrOutOfStock) {
				return nil, e.NewProductError(id, e.ErrOutOfStock)
			}
			return nil, err
		}
	}

	created, err := c.orderRepo.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	// Названия нужны только для уведомления
	for i := range created.Items {
		if p, ok := byID[created.Items[i].ProductID]; ok {
			created.Items[i].Title = p.Title
		}
	}

	return created, nil
}

// validate проверяет форму запроса и сворачивает повторяющиеся товары в суммарный спрос.
func (c *CheckoutUseCase) validate(req *PlaceOrderReq) (string, *string, []demand, error) {
	if req == nil {
		return "", nil, nil, e.ErrNoItems
	}

	purchaserID := strings.TrimSpace(req.PurchaserID)
	if purchaserID == "" {
		return "", nil, nil, e.ErrPurchaserRequired
	}

	if len(req.Items) == 0 {
		return "", nil, nil, e.ErrNoItems
	}

	demands := make([]demand, 0, len(req.Items))
	index := make(map[int64]int, len(req.Items))
	for _, line := range req.Items {
		if line.ProductID <= 0 {
			return "", nil, nil, e.ErrInvalidProductID
		}

		if line.Qty <= 0 {
			return "", nil, nil, e.NewProductError(line.ProductID, e.ErrInvalidQuantity)
		}

		i, seen := index[line.ProductID]
		if !seen {
			index[line.ProductID] = len(demands)
			demands = append(demands, demand{productID: line.ProductID, qty: line.Qty})
			continue
		}

		merged, err := money.Add(demands[i].qty, line.Qty)
		if err != nil {
			return "", nil, nil, e.NewProductError(line.ProductID, e.ErrInvalidQuantity)
		}
		demands[i].qty = merged
	}

	return purchaserID, normalizeHandle(req.PurchaserHandle), demands, nil
}

func demandFor(demands []demand, id int64) int64 {
	for _, d := range demands {
		if d.productID == id {
			return d.qty
		}
	}
	return 0
}

// normalizeHandle убирает пробелы и ведущий @, пустой ник превращается в nil.
func normalizeHandle(h *string) *string {
	if h == nil {
		return nil
	}

	v := strings.TrimPrefix(strings.TrimSpace(*h), "@")
	if v == "" {
		return nil
	}

	return &v
}

// IsCheckoutRejection сообщает, что заказ отклонён по вине корзины, а не из-за сбоя.
func IsCheckoutRejection(err error) bool {
	return errors.Is(err, e.ErrValidation) ||
		errors.Is(err, e.ErrProductNotFound) ||
		errors.Is(err, e.ErrOutOfStock)
}

// CheckoutOutcome переводит результат оформления в метку метрики.
func CheckoutOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, e.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, e.ErrProductNotFound):
		return OutcomeNotFound
	case errors.Is(err, e.ErrOutOfStock):
		return OutcomeOutOfStock
	default:
		return OutcomeError
	}
}
