package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/DRSN-tech/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
)

const (
	defaultMaxImageSize = 5 << 20
	multipartOverhead   = 1 << 20
	multipartMaxMemory  = 8 << 20
)

// AdminHandler — операторские маршруты: товары, журнал заказов и подписки на уведомления.
type AdminHandler struct {
	productUC    usecase.ProductAdminUC
	operatorUC   usecase.OperatorUC
	maxImageSize int64
	logger       logger.Logger
}

func NewAdminHandler(productUC usecase.ProductAdminUC, operatorUC usecase.OperatorUC, maxImageSize int64, logger logger.Logger) *AdminHandler {
	if maxImageSize <= 0 {
		maxImageSize = defaultMaxImageSize
	}

	return &AdminHandler{
		productUC:    productUC,
		operatorUC:   operatorUC,
		maxImageSize: maxImageSize,
		logger:       logger,
	}
}

// listProducts
//
//	@Summary	Все товары, включая неактивные
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Success	200	{array}		AdminProductResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/api/v1/admin/products [get]
func (a *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.productUC.ListAllProducts(r.Context())
	if err != nil {
		a.logger.Errorf(err, "admin list products failed")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAdminProductResponses(products))
}

// createProduct
//
//	@Summary		Новый товар
//	@Description	Создаёт активный товар; изображение необязательно
//	@Tags			admin
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		AdminToken
//	@Param			title	formData	string	true	"Название"
//	@Param			price	formData	string	true	"Цена, например 12.50"
//	@Param			stock	formData	int		true	"Остаток"
//	@Param			image	formData	file	false	"Изображение"
//	@Success		201		{object}	AdminProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/api/v1/admin/products [post]
func (a *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxImageSize+multipartOverhead)

	if err := ensureMultipartForm(r, multipartMaxMemory); err != nil {
		a.logger.Warnf("%d create product: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	req, err := parseProductForm(r)
	if err != nil {
		a.logger.Warnf("%d create product: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	if req.Image, err = formImage(r, a.maxImageSize); err != nil {
		a.logger.Warnf("%d create product image: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	product, err := a.productUC.CreateProduct(r.Context(), req)
	if err != nil {
		a.logError(err, "create product")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toAdminProductResponse(product))
}

// updateProduct
//
//	@Summary		Редактирование товара
//	@Description	Меняет название, цену или активность. Остаток и прошлые заказы не затрагиваются
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminToken
//	@Param			id		path		int						true	"ID товара"
//	@Param			patch	body		UpdateProductRequest	true	"Изменения"
//	@Success		200		{object}	AdminProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/v1/admin/products/{id} [patch]
func (a *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var body UpdateProductRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	req := &usecase.UpdateProductReq{ID: id, Title: body.Title, IsActive: body.IsActive}
	if body.Price != nil {
		price, err := money.Parse(body.Price.String())
		if err != nil {
			WriteError(w, err)
			return
		}
		req.Price = &price
	}

	product, err := a.productUC.UpdateProduct(r.Context(), req)
	if err != nil {
		a.logError(err, "update product")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAdminProductResponse(product))
}

// setProductImage
//
//	@Summary	Замена изображения товара
//	@Tags		admin
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	AdminToken
//	@Param		id		path		int		true	"ID товара"
//	@Param		image	formData	file	true	"Изображение"
//	@Success	200		{object}	AdminProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/v1/admin/products/{id}/image [put]
func (a *AdminHandler) setProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.maxImageSize+multipartOverhead)
	if err := ensureMultipartForm(r, multipartMaxMemory); err != nil {
		WriteError(w, err)
		return
	}

	image, err := formImage(r, a.maxImageSize)
	if err != nil {
		WriteError(w, err)
		return
	}
	if image == nil {
		WriteError(w, e.ErrNoImages)
		return
	}

	product, err := a.productUC.SetProductImage(r.Context(), id, image)
	if err != nil {
		a.logError(err, "set product image")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAdminProductResponse(product))
}

// clearProductImage
//
//	@Summary	Удаление изображения товара
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	AdminProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/admin/products/{id}/image [delete]
func (a *AdminHandler) clearProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := a.productUC.ClearProductImage(r.Context(), id)
	if err != nil {
		a.logError(err, "clear product image")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toAdminProductResponse(product))
}

// listOrders
//
//	@Summary	Последние заказы
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Param		limit	query		int	false	"Количество, по умолчанию 10, не больше 50"
//	@Success	200		{array}		OrderResponse
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/admin/orders [get]
func (a *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	orders, err := a.productUC.ListRecentOrders(r.Context(), limit)
	if err != nil {
		a.logError(err, "list orders")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponses(orders))
}

// registerOperator
//
//	@Summary	Подписка оператора на уведомления
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	AdminToken
//	@Param		operator	body		RegisterOperatorRequest	true	"Чат оператора"
//	@Success	200			{object}	OperatorResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/api/v1/admin/operators [post]
func (a *AdminHandler) registerOperator(w http.ResponseWriter, r *http.Request) {
	var body RegisterOperatorRequest
	if err := decodeJSON(w, r, &body); err != nil {
		WriteError(w, err)
		return
	}

	operator, err := a.operatorUC.RegisterOperator(r.Context(), body.ChatID)
	if err != nil {
		a.logError(err, "register operator")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, OperatorResponse{ChatID: operator.ChatID, Notify: operator.Notify, CreatedAt: operator.CreatedAt})
}

// muteOperator
//
//	@Summary	Отписка оператора от уведомлений
//	@Tags		admin
//	@Security	AdminToken
//	@Param		chatID	path	int	true	"Чат оператора"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/admin/operators/{chatID} [delete]
func (a *AdminHandler) muteOperator(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "chatID")), 10, 64)
	if err != nil || chatID == 0 {
		WriteError(w, e.ErrInvalidChatID)
		return
	}

	if err := a.operatorUC.MuteOperator(r.Context(), chatID); err != nil {
		a.logError(err, "mute operator")
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listOperators
//
//	@Summary	Операторы с включёнными уведомлениями
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Success	200	{array}	OperatorResponse
//	@Router		/api/v1/admin/operators [get]
func (a *AdminHandler) listOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := a.operatorUC.ListNotifiable(r.Context())
	if err != nil {
		a.logError(err, "list operators")
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOperatorResponses(operators))
}

// logError пишет в лог только сбои; отказы по вине клиента уходят в Warn.
func (a *AdminHandler) logError(err error, action string) {
	if errors.Is(err, e.ErrInternalServerError) {
		a.logger.Errorf(err, "admin %s failed", action)
		return
	}
	a.logger.Warnf("admin %s rejected: %v", action, err)
}
