package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/internal/proto"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"google.golang.org/grpc"
)

type StorefrontService struct {
	proto.UnimplementedStorefrontServer

	checkoutUC usecase.CheckoutUC
	catalogUC  usecase.CatalogUC
	logger     logger.Logger
}

func NewStorefrontService(checkoutUC usecase.CheckoutUC, catalogUC usecase.CatalogUC, logger logger.Logger) *StorefrontService {
	return &StorefrontService{checkoutUC: checkoutUC, catalogUC: catalogUC, logger: logger}
}

func (g *StorefrontService) PlaceOrder(ctx context.Context, req *proto.PlaceOrderRequest) (*proto.PlaceOrderResponse, error) {
	const op = "grpc.PlaceOrder"

	res, err := g.checkoutUC.PlaceOrder(ctx, toPlaceOrderReq(req))
	if err != nil {
		if usecase.IsCheckoutRejection(err) {
			g.logger.Infof("%s: order rejected: %v", op, err)
		} else {
			g.logger.Errorf(e.Wrap(op, err), "%s", op)
		}

		if md, ok := productTrailer(err); ok {
			_ = grpc.SetTrailer(ctx, md)
		}
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return &proto.PlaceOrderResponse{
		OrderId:   res.OrderID,
		Total:     res.Total,
		CreatedAt: res.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (g *StorefrontService) ListProducts(ctx context.Context, _ *proto.ListProductsRequest) (*proto.ListProductsResponse, error) {
	const op = "grpc.ListProducts"

	products, err := g.catalogUC.ListActiveProducts(ctx)
	if err != nil {
		g.logger.Errorf(e.Wrap(op, err), "%s", op)
		return nil, GRPCErrorResponse(e.Wrap(op, err))
	}

	return &proto.ListProductsResponse{Products: toArrGRPCProduct(products)}, nil
}

func toPlaceOrderReq(req *proto.PlaceOrderRequest) *usecase.PlaceOrderReq {
	items := make([]usecase.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CartLine{ProductID: it.ProductId, Qty: it.Qty})
	}

	var handle *string
	if req.PurchaserHandle != "" {
		handle = &req.PurchaserHandle
	}

	return &usecase.PlaceOrderReq{
		PurchaserID:     req.PurchaserId,
		PurchaserHandle: handle,
		Items:           items,
	}
}

func toGRPCProduct(pr *usecase.CatalogProduct) *proto.Product {
	p := &proto.Product{
		Id:    pr.ID,
		Title: pr.Title,
		Price: pr.Price,
		Stock: pr.Stock,
	}
	if pr.ImageURL != nil {
		p.ImageUrl = *pr.ImageURL
	}

	return p
}

func toArrGRPCProduct(prs []usecase.CatalogProduct) []*proto.Product {
	res := make([]*proto.Product, len(prs))
	for i := range prs {
		res[i] = toGRPCProduct(&prs[i])
	}

	return res
}

var _ proto.StorefrontServer = (*StorefrontService)(nil)
