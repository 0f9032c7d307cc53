package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/money"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	maxJSONBodySize = 1 << 20

	CodeValidation      = "VALIDATION_ERROR"
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeOutOfStock      = "OUT_OF_STOCK"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeServerError     = "SERVER_ERROR"
)

type ErrorResponse struct {
	Code      string `json:"code" example:"OUT_OF_STOCK"`
	Message   string `json:"message" example:"out of stock: product 1"`
	ProductID *int64 `json:"product_id,omitempty" example:"1"`
}

func NewErrorResponse(code string, message string, productID *int64) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		ProductID: productID,
	}
}

// ToHTTPResponse переводит ошибку usecase в HTTP-статус и тело ответа.
// Текст внутренних ошибок наружу не отдаётся.
func ToHTTPResponse(err error) (int, *ErrorResponse) {
	var productID *int64
	if id, ok := e.ProductID(err); ok {
		productID = &id
	}

	switch {
	case errors.Is(err, e.ErrInternalServerError):
		return http.StatusInternalServerError, NewErrorResponse(CodeServerError, e.ErrInternalServerError.Error(), nil)
	case errors.Is(err, e.ErrValidation):
		return http.StatusBadRequest, NewErrorResponse(CodeValidation, validationMessage(err), productID)
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, NewErrorResponse(CodeProductNotFound, e.ErrProductNotFound.Error(), productID)
	case errors.Is(err, e.ErrOutOfStock):
		return http.StatusConflict, NewErrorResponse(CodeOutOfStock, e.ErrOutOfStock.Error(), productID)
	case errors.Is(err, e.ErrOrderNotFound):
		return http.StatusNotFound, NewErrorResponse(CodeNotFound, e.ErrOrderNotFound.Error(), nil)
	case errors.Is(err, e.ErrOperatorNotFound):
		return http.StatusNotFound, NewErrorResponse(CodeNotFound, e.ErrOperatorNotFound.Error(), nil)
	case errors.Is(err, e.ErrImageNotFound), errors.Is(err, e.ErrImagesDisabled):
		return http.StatusNotFound, NewErrorResponse(CodeNotFound, e.ErrImageNotFound.Error(), nil)
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, NewErrorResponse(CodeUnauthorized, e.ErrUnauthorized.Error(), nil)
	default:
		return http.StatusInternalServerError, NewErrorResponse(CodeServerError, e.ErrInternalServerError.Error(), nil)
	}
}

// validationMessage оставляет от цепочки только текст, начиная с "validation error".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, e.ErrValidation.Error()); i >= 0 {
		return msg[i:]
	}

	return e.ErrValidation.Error()
}

func WriteError(w http.ResponseWriter, err error) {
	code, body := ToHTTPResponse(err)
	WriteSuccess(w, code, body)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает ровно один JSON-объект не больше maxJSONBodySize и отвергает неизвестные поля.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return fmt.Errorf("%w: %s", e.ErrInvalidJSON, err.Error())
	}

	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after json object", e.ErrInvalidJSON)
	}

	return nil
}

// PurchaserID принимает идентификатор покупателя строкой или целым неотрицательным числом.
type PurchaserID string

func (p *PurchaserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PurchaserID(s)
		return nil
	}

	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("purchaser_id must be a string or a non-negative integer")
	}
	*p = PurchaserID(strconv.FormatUint(n, 10))

	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", e.ErrValidation, name)
	}

	return id, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be an integer", e.ErrValidation)
	}

	return limit, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %s", e.ErrExpectedMultipart, err.Error()))
	}

	return nil
}

// parseProductForm читает поля title, price и stock новой карточки товара.
func parseProductForm(r *http.Request) (*usecase.CreateProductReq, error) {
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		return nil, e.ErrProductNameRequired
	}

	price, err := money.Parse(r.FormValue("price"))
	if err != nil {
		return nil, err
	}

	stock, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("stock")), 10, 64)
	if err != nil || stock < 0 {
		return nil, e.ErrInvalidStock
	}

	return &usecase.CreateProductReq{
		Title: title,
		Price: price,
		Stock: stock,
	}, nil
}

// formImage достаёт необязательный файл из поля "image".
func formImage(r *http.Request, maxSize int64) (*usecase.ProductImage, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		return nil, nil
	}

	return readImage(files[0], maxSize)
}

func readImage(fh *multipart.FileHeader, maxSize int64) (*usecase.ProductImage, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, e.Internal(whereami.WhereAmI(), err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, e.Internal(whereami.WhereAmI(), err)
	}
	if len(data) == 0 {
		return nil, e.Wrap(fh.Filename, e.ErrNoImages)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}
