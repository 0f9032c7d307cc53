package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jimlawless/whereami"
)

// OrderRepo — журнал заказов. Таблицы защищены от UPDATE/DELETE триггерами.
type OrderRepo struct {
	db   tr.Querier
	conv converter.OrderConverter
}

func NewOrderRepo(db tr.Querier, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		db:   db,
		conv: conv,
	}
}

// Create пишет заказ и все его позиции. Требует открытой транзакции.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.OrderModel
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (purchaser_id, purchaser_handle, total)
		VALUES ($1, $2, $3)
		RETURNING id, purchaser_id, purchaser_handle, total, created_at
	`, order.PurchaserID, order.PurchaserHandle, order.Total).
		Scan(&model.ID, &model.PurchaserID, &model.PurchaserHandle, &model.Total, &model.CreatedAt)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	batch := &pgx.Batch{}
	for _, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, qty, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, model.ID, item.ProductID, item.Qty, item.UnitPrice)
	}

	br := tx.SendBatch(ctx, batch)
	items := make([]converter.OrderItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		itemModel := converter.OrderItemModel{
			OrderID:   model.ID,
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			Title:     item.Title,
		}
		if err := br.QueryRow().Scan(&itemModel.ID); err != nil {
			_ = br.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		items = append(items, itemModel)
	}
	if err := br.Close(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, items), nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	db := tr.QuerierFromCtx(ctx, o.db)

	var model converter.OrderModel
	err := db.QueryRow(ctx, `
		SELECT id, purchaser_id, purchaser_handle, total, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&model.ID, &model.PurchaserID, &model.PurchaserHandle, &model.Total, &model.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrOrderNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.itemsByOrders(ctx, db, []int64{id})
	if err != nil {
		return nil, err
	}

	return o.conv.ToEntity(&model, items[id]), nil
}

// ListRecent возвращает последние заказы, новые первыми.
func (o *OrderRepo) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	db := tr.QuerierFromCtx(ctx, o.db)

	rows, err := db.Query(ctx, `
		SELECT id, purchaser_id, purchaser_handle, total, created_at
		FROM orders
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.OrderModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids := make([]int64, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}

	items, err := o.itemsByOrders(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Order, 0, len(models))
	for i := range models {
		result = append(result, *o.conv.ToEntity(&models[i], items[models[i].ID]))
	}

	return result, nil
}

// itemsByOrders загружает позиции заказов с текущими названиями товаров. Цены берутся из позиций.
func (o *OrderRepo) itemsByOrders(ctx context.Context, db tr.Querier, orderIDs []int64) (map[int64][]converter.OrderItemModel, error) {
	result := make(map[int64][]converter.OrderItemModel, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	rows, err := db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.qty, oi.unit_price, p.title
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id
	`, orderIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToStructByName[converter.OrderItemModel])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for _, m := range models {
		result[m.OrderID] = append(result[m.OrderID], m)
	}

	return result, nil
}

var _ usecase.OrderRepository = (*OrderRepo)(nil)
