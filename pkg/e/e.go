package e

import (
	"errors"
	"fmt"
)

var (
	// Таксономия ошибок оформления заказа
	ErrValidation          = errors.New("validation error")
	ErrProductNotFound     = errors.New("product not found")
	ErrOutOfStock          = errors.New("out of stock")
	ErrInternalServerError = errors.New("internal server error")

	// 400 Bad Request
	ErrPurchaserRequired   = fmt.Errorf("%w: purchaser id is required", ErrValidation)
	ErrNoItems             = fmt.Errorf("%w: items must not be empty", ErrValidation)
	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	ErrInvalidProductID    = fmt.Errorf("%w: product id must be a positive integer", ErrValidation)
	ErrAmountOverflow      = fmt.Errorf("%w: amount is too large", ErrValidation)
	ErrInvalidJSON         = fmt.Errorf("%w: invalid json body", ErrValidation)
	ErrProductNameRequired = fmt.Errorf("%w: product title is required", ErrValidation)
	ErrInvalidPrice        = fmt.Errorf("%w: invalid price", ErrValidation)
	ErrPricePrecision      = fmt.Errorf("%w: price must have at most 2 decimal places", ErrValidation)
	ErrInvalidStock        = fmt.Errorf("%w: stock must be a non-negative integer", ErrValidation)
	ErrInvalidChatID       = fmt.Errorf("%w: chat id must be a non-zero integer", ErrValidation)
	ErrNothingToUpdate     = fmt.Errorf("%w: nothing to update", ErrValidation)
	ErrExpectedMultipart   = fmt.Errorf("%w: expected multipart/form-data", ErrValidation)
	ErrNoImages            = fmt.Errorf("%w: no image provided", ErrValidation)
	ErrFileTooLarge        = fmt.Errorf("%w: file is too large", ErrValidation)
	ErrUnsupportedMedia    = fmt.Errorf("%w: unsupported media type", ErrValidation)
	ErrInvalidLimit        = fmt.Errorf("%w: limit must not be negative", ErrValidation)

	// 404 Not Found
	ErrOrderNotFound    = errors.New("order not found")
	ErrOperatorNotFound = errors.New("operator not found")
	ErrImageNotFound    = errors.New("image not found")

	ErrUnauthorized    = errors.New("unauthorized")
	ErrImagesDisabled  = errors.New("image storage is disabled")
	ErrCacheMiss       = errors.New("cache miss")
	ErrKafkaDisabled   = errors.New("kafka disabled")
	ErrTelegramFailure = errors.New("telegram api failure")

	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrIncorrectEnvVariable = errors.New("incorrect env variable")
)

// ProductError привязывает ошибку к конкретному товару корзины.
type ProductError struct {
	ProductID int64
	Err       error
}

func NewProductError(productID int64, err error) *ProductError {
	return &ProductError{ProductID: productID, Err: err}
}

func (p *ProductError) Error() string {
	return fmt.Sprintf("%v: product %d", p.Err, p.ProductID)
}

func (p *ProductError) Unwrap() error {
	return p.Err
}

// ProductID достаёт идентификатор товара из цепочки ошибок.
func ProductID(err error) (int64, bool) {
	var pe *ProductError
	if errors.As(err, &pe) {
		return pe.ProductID, true
	}

	return 0, false
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Internal помечает ошибку как внутреннюю, сохраняя исходную причину в цепочке.
func Internal(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrInternalServerError, err)
}
