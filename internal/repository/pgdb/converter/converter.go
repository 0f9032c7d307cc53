package converter

import "github.com/DRSN-tech/storefront/internal/domain"

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
	ToArrEntity(models []ProductModel) []domain.Product
}

// OrderConverter собирает заказ из строк orders и order_items.
type OrderConverter interface {
	ToEntity(model *OrderModel, items []OrderItemModel) *domain.Order
	ToItemEntity(model *OrderItemModel) domain.OrderItem
}

type OperatorConverter interface {
	ToEntity(model *OperatorModel) *domain.Operator
	ToArrEntity(models []OperatorModel) []domain.Operator
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	return &ProductModel{
		ID:        entity.ID,
		Title:     entity.Title,
		Price:     entity.Price,
		Stock:     entity.Stock,
		IsActive:  entity.IsActive,
		ImageRef:  entity.ImageRef,
		CreatedAt: entity.CreatedAt,
		UpdatedAt: entity.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	return &domain.Product{
		ID:        model.ID,
		Title:     model.Title,
		Price:     model.Price,
		Stock:     model.Stock,
		IsActive:  model.IsActive,
		ImageRef:  model.ImageRef,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToArrEntity(models []ProductModel) []domain.Product {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}

type OrderConverterImpl struct{}

func NewOrderConverterImpl() *OrderConverterImpl {
	return &OrderConverterImpl{}
}

func (c *OrderConverterImpl) ToEntity(model *OrderModel, items []OrderItemModel) *domain.Order {
	if model == nil {
		return nil
	}

	order := &domain.Order{
		ID:              model.ID,
		PurchaserID:     model.PurchaserID,
		PurchaserHandle: model.PurchaserHandle,
		Total:           model.Total,
		CreatedAt:       model.CreatedAt,
		Items:           make([]domain.OrderItem, 0, len(items)),
	}
	for i := range items {
		order.Items = append(order.Items, c.ToItemEntity(&items[i]))
	}

	return order
}

func (c *OrderConverterImpl) ToItemEntity(model *OrderItemModel) domain.OrderItem {
	return domain.OrderItem{
		ID:        model.ID,
		OrderID:   model.OrderID,
		ProductID: model.ProductID,
		Qty:       model.Qty,
		UnitPrice: model.UnitPrice,
		Title:     model.Title,
	}
}

type OperatorConverterImpl struct{}

func NewOperatorConverterImpl() *OperatorConverterImpl {
	return &OperatorConverterImpl{}
}

func (c *OperatorConverterImpl) ToEntity(model *OperatorModel) *domain.Operator {
	if model == nil {
		return nil
	}

	return &domain.Operator{
		ChatID:    model.ChatID,
		Notify:    model.Notify,
		CreatedAt: model.CreatedAt,
	}
}

func (c *OperatorConverterImpl) ToArrEntity(models []OperatorModel) []domain.Operator {
	result := make([]domain.Operator, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}

	return result
}
