package converter

import "github.com/DRSN-tech/storefront/internal/usecase"

// CatalogConverter преобразует записи каталога между usecase и моделью кэша.
type CatalogConverter interface {
	ToRedisModel(entity *usecase.CatalogItem) *CatalogItemRedisModel
	ToUseCase(model *CatalogItemRedisModel) *usecase.CatalogItem
	ToArrRedisModel(entities []usecase.CatalogItem) []CatalogItemRedisModel
	ToArrUseCase(models []CatalogItemRedisModel) []usecase.CatalogItem
}

type CatalogConverterImpl struct{}

func NewCatalogConverterImpl() *CatalogConverterImpl {
	return &CatalogConverterImpl{}
}

func (c *CatalogConverterImpl) ToRedisModel(entity *usecase.CatalogItem) *CatalogItemRedisModel {
	if entity == nil {
		return nil
	}

	return &CatalogItemRedisModel{
		ID:       entity.ID,
		Title:    entity.Title,
		Price:    entity.Price,
		Stock:    entity.Stock,
		ImageRef: entity.ImageRef,
	}
}

func (c *CatalogConverterImpl) ToUseCase(model *CatalogItemRedisModel) *usecase.CatalogItem {
	if model == nil {
		return nil
	}

	return &usecase.CatalogItem{
		ID:       model.ID,
		Title:    model.Title,
		Price:    model.Price,
		Stock:    model.Stock,
		ImageRef: model.ImageRef,
	}
}

func (c *CatalogConverterImpl) ToArrRedisModel(entities []usecase.CatalogItem) []CatalogItemRedisModel {
	result := make([]CatalogItemRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}

func (c *CatalogConverterImpl) ToArrUseCase(models []CatalogItemRedisModel) []usecase.CatalogItem {
	result := make([]usecase.CatalogItem, 0, len(models))
	for i := range models {
		result = append(result, *c.ToUseCase(&models[i]))
	}

	return result
}
