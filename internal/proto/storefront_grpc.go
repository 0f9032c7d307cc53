package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	Storefront_ServiceName                 = packageName + ".Storefront"
	Storefront_PlaceOrder_FullMethodName   = "/" + Storefront_ServiceName + "/PlaceOrder"
	Storefront_ListProducts_FullMethodName = "/" + Storefront_ServiceName + "/ListProducts"
)

// StorefrontClient — клиент сервиса storefront.v1.Storefront.
type StorefrontClient interface {
	PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error)
	ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error)
}

type storefrontClient struct {
	cc grpc.ClientConnInterface
}

func NewStorefrontClient(cc grpc.ClientConnInterface) StorefrontClient {
	return &storefrontClient{cc: cc}
}

func (c *storefrontClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := dynamicpb.NewMessage(placeOrderResponseDesc)
	if err := c.cc.Invoke(ctx, Storefront_PlaceOrder_FullMethodName, in.Message(), out, opts...); err != nil {
		return nil, err
	}

	return PlaceOrderResponseFromMessage(out), nil
}

func (c *storefrontClient) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	out := dynamicpb.NewMessage(listProductsResponseDesc)
	if err := c.cc.Invoke(ctx, Storefront_ListProducts_FullMethodName, in.Message(), out, opts...); err != nil {
		return nil, err
	}

	return ListProductsResponseFromMessage(out), nil
}

// StorefrontServer — серверная сторона сервиса. Реализации встраивают UnimplementedStorefrontServer.
type StorefrontServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
	mustEmbedUnimplementedStorefrontServer()
}

type UnimplementedStorefrontServer struct{}

func (UnimplementedStorefrontServer) PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PlaceOrder not implemented")
}

func (UnimplementedStorefrontServer) ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListProducts not implemented")
}

func (UnimplementedStorefrontServer) mustEmbedUnimplementedStorefrontServer() {}

func RegisterStorefrontServer(s grpc.ServiceRegistrar, srv StorefrontServer) {
	s.RegisterService(&Storefront_ServiceDesc, srv)
}

// Storefront_ServiceDesc описывает сервис для grpc.Server. Сообщения кодируются стандартным protobuf-кодеком.
var Storefront_ServiceDesc = grpc.ServiceDesc{
	ServiceName: Storefront_ServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "ListProducts", Handler: listProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: FileName,
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(placeOrderRequestDesc)
	if err := dec(in); err != nil {
		return nil, decodeError(err)
	}

	handler := func(ctx context.Context, req any) (any, error) {
		res, err := srv.(StorefrontServer).PlaceOrder(ctx, req.(*PlaceOrderRequest))
		if err != nil {
			return nil, err
		}
		return res.Message(), nil
	}

	req := PlaceOrderRequestFromMessage(in)
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Storefront_PlaceOrder_FullMethodName}
	return interceptor(ctx, req, info, handler)
}

func listProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(listProductsRequestDesc)
	if err := dec(in); err != nil {
		return nil, decodeError(err)
	}

	handler := func(ctx context.Context, req any) (any, error) {
		res, err := srv.(StorefrontServer).ListProducts(ctx, req.(*ListProductsRequest))
		if err != nil {
			return nil, err
		}
		return res.Message(), nil
	}

	req := ListProductsRequestFromMessage(in)
	if interceptor == nil {
		return handler(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Storefront_ListProducts_FullMethodName}
	return interceptor(ctx, req, info, handler)
}

// decodeError сообщает клиенту о битом запросе как о InvalidArgument.
func decodeError(err error) error {
	return status.Error(codes.InvalidArgument, status.Convert(err).Message())
}
