// Package proto содержит сообщения и сервис storefront.v1 из api/storefront/v1/storefront.proto.
// Дескриптор файла собирается из descriptorpb и регистрируется в protoregistry.GlobalFiles:
// стандартный protobuf-кодек gRPC, server reflection и grpcurl видят сервис как обычный.
package proto

import (
	"fmt"

	gproto "google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const (
	// FileName — путь .proto-файла относительно корня api/.
	FileName = "storefront/v1/storefront.proto"

	packageName = "storefront.v1"
)

var (
	// File_storefront_v1 — дескриптор файла storefront.proto.
	File_storefront_v1 protoreflect.FileDescriptor

	cartLineDesc             protoreflect.MessageDescriptor
	placeOrderRequestDesc    protoreflect.MessageDescriptor
	placeOrderResponseDesc   protoreflect.MessageDescriptor
	listProductsRequestDesc  protoreflect.MessageDescriptor
	productDesc              protoreflect.MessageDescriptor
	listProductsResponseDesc protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(storefrontFileProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("build %s descriptor: %v", FileName, err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("register %s: %v", FileName, err))
	}

	File_storefront_v1 = fd
	msgs := fd.Messages()
	cartLineDesc = msgs.ByName("CartLine")
	placeOrderRequestDesc = msgs.ByName("PlaceOrderRequest")
	placeOrderResponseDesc = msgs.ByName("PlaceOrderResponse")
	listProductsRequestDesc = msgs.ByName("ListProductsRequest")
	productDesc = msgs.ByName("Product")
	listProductsResponseDesc = msgs.ByName("ListProductsResponse")
}

// storefrontFileProto повторяет api/storefront/v1/storefront.proto. Номера полей менять нельзя.
func storefrontFileProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    gproto.String(FileName),
		Package: gproto.String(packageName),
		Syntax:  gproto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: gproto.String("github.com/DRSN-tech/storefront/internal/proto"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("CartLine",
				scalar("product_id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("qty", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
			),
			message("PlaceOrderRequest",
				scalar("purchaser_id", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalar("purchaser_handle", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				repeated("items", 3, "CartLine"),
			),
			message("PlaceOrderResponse",
				scalar("order_id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("total", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("created_at", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			),
			message("ListProductsRequest"),
			message("Product",
				scalar("id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("title", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalar("price", 3, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("stock", 4, descriptorpb.FieldDescriptorProto_TYPE_INT64),
				scalar("image_url", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			),
			message("ListProductsResponse",
				repeated("products", 1, "Product"),
			),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: gproto.String("Storefront"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("PlaceOrder", "PlaceOrderRequest", "PlaceOrderResponse"),
				method("ListProducts", "ListProductsRequest", "ListProductsResponse"),
			},
		}},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: gproto.String(name), Field: fields}
}

func scalar(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   gproto.String(name),
		Number: gproto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func repeated(name string, number int32, msg string) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     gproto.String(name),
		Number:   gproto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
		Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
		TypeName: gproto.String("." + packageName + "." + msg),
	}
}

func method(name, in, out string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       gproto.String(name),
		InputType:  gproto.String("." + packageName + "." + in),
		OutputType: gproto.String("." + packageName + "." + out),
	}
}
