package grpc

import (
	"errors"
	"strconv"

	"github.com/DRSN-tech/storefront/pkg/e"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ProductIDTrailer — ключ trailer-метаданных с id проблемного товара.
const ProductIDTrailer = "product-id"

func GRPCErrorResponse(err error) error {
	switch {
	case errors.Is(err, e.ErrInternalServerError):
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	case errors.Is(err, e.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrProductNotFound):
		return status.Error(codes.NotFound, e.ErrProductNotFound.Error())
	case errors.Is(err, e.ErrOutOfStock):
		return status.Error(codes.FailedPrecondition, e.ErrOutOfStock.Error())
	default:
		return status.Error(codes.Internal, e.ErrInternalServerError.Error())
	}
}

// productTrailer возвращает trailer с id товара, если ошибка к нему привязана.
func productTrailer(err error) (metadata.MD, bool) {
	id, ok := e.ProductID(err)
	if !ok {
		return nil, false
	}

	return metadata.Pairs(ProductIDTrailer, strconv.FormatInt(id, 10)), true
}
