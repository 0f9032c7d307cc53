package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StorefrontHandler обслуживает покупательскую часть API: каталог, оформление и просмотр заказа, изображения.
type StorefrontHandler struct {
	checkoutUC usecase.CheckoutUC
	catalogUC  usecase.CatalogUC
	logger     logger.Logger
}

func NewStorefrontHandler(checkoutUC usecase.CheckoutUC, catalogUC usecase.CatalogUC, logger logger.Logger) *StorefrontHandler {
	return &StorefrontHandler{checkoutUC: checkoutUC, catalogUC: catalogUC, logger: logger}
}

// listProducts
//
//	@Summary		Каталог
//	@Description	Активные товары по возрастанию id
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{array}		ProductResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/v1/products [get]
func (s *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalogUC.ListActiveProducts(r.Context())
	if err != nil {
		s.logger.Errorf(err, "list products failed, request_id=%s", middleware.GetReqID(r.Context()))
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponses(products))
}

// placeOrder
//
//	@Summary		Оформление заказа
//	@Description	Атомарно проверяет наличие, фиксирует цены, списывает остатки и создаёт заказ
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			order	body		PlaceOrderRequest	true	"Корзина"
//	@Success		200		{object}	PlaceOrderResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		404		{object}	ErrorResponse	"Товар не найден или неактивен"
//	@Failure		409		{object}	ErrorResponse	"Недостаточно товара"
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/orders [post]
func (s *StorefrontHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.logger.Warnf("%d place order: %v", http.StatusBadRequest, err)
		WriteError(w, err)
		return
	}

	res, err := s.checkoutUC.PlaceOrder(r.Context(), req.ToUseCase())
	if err != nil {
		if usecase.IsCheckoutRejection(err) {
			s.logger.Infof("order rejected: %v", err)
		} else {
			s.logger.Errorf(err, "place order failed, request_id=%s", middleware.GetReqID(r.Context()))
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, PlaceOrderResponse{
		OrderID:   res.OrderID,
		Total:     res.Total,
		CreatedAt: res.CreatedAt,
	})
}

// getOrder
//
//	@Summary	Заказ
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	OrderResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/orders/{id} [get]
func (s *StorefrontHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	order, err := s.catalogUC.GetOrder(r.Context(), id)
	if err != nil {
		if !errors.Is(err, e.ErrOrderNotFound) {
			s.logger.Errorf(err, "get order %d failed", id)
		}
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toOrderResponse(order))
}

// getImage
//
//	@Summary	Изображение товара
//	@Tags		catalog
//	@Produce	octet-stream
//	@Param		ref	path	string	true	"Ключ изображения"
//	@Success	200
//	@Failure	404	{object}	ErrorResponse
//	@Router		/images/{ref} [get]
func (s *StorefrontHandler) getImage(w http.ResponseWriter, r *http.Request) {
	ref, err := url.PathUnescape(chi.URLParam(r, "ref"))
	if err != nil {
		WriteError(w, e.ErrImageNotFound)
		return
	}

	obj, err := s.catalogUC.OpenImage(r.Context(), ref)
	if err != nil {
		if errors.Is(err, e.ErrInternalServerError) {
			s.logger.Errorf(err, "open image %q failed", ref)
		}
		WriteError(w, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if obj.ETag != "" {
		w.Header().Set("ETag", `"`+obj.ETag+`"`)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		s.logger.Warnf("stream image %q interrupted: %v", ref, err)
	}
}
