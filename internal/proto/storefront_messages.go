package proto

import (
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

type CartLine struct {
	ProductId int64
	Qty       int64
}

type PlaceOrderRequest struct {
	PurchaserId     string
	PurchaserHandle string
	Items           []*CartLine
}

type PlaceOrderResponse struct {
	OrderId   int64
	Total     int64
	CreatedAt string // RFC 3339
}

type ListProductsRequest struct{}

type Product struct {
	Id       int64
	Title    string
	Price    int64
	Stock    int64
	ImageUrl string
}

type ListProductsResponse struct {
	Products []*Product
}

// Message переводит запрос в protobuf-сообщение для отправки по сети.
func (x *PlaceOrderRequest) Message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(placeOrderRequestDesc)
	setString(m, "purchaser_id", x.PurchaserId)
	setString(m, "purchaser_handle", x.PurchaserHandle)
	for _, it := range x.Items {
		line := dynamicpb.NewMessage(cartLineDesc)
		setInt(line, "product_id", it.ProductId)
		setInt(line, "qty", it.Qty)
		appendMessage(m, "items", line)
	}

	return m
}

func PlaceOrderRequestFromMessage(m protoreflect.Message) *PlaceOrderRequest {
	x := &PlaceOrderRequest{
		PurchaserId:     getString(m, "purchaser_id"),
		PurchaserHandle: getString(m, "purchaser_handle"),
	}
	rangeMessages(m, "items", func(line protoreflect.Message) {
		x.Items = append(x.Items, &CartLine{
			ProductId: getInt(line, "product_id"),
			Qty:       getInt(line, "qty"),
		})
	})

	return x
}

func (x *PlaceOrderResponse) Message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(placeOrderResponseDesc)
	setInt(m, "order_id", x.OrderId)
	setInt(m, "total", x.Total)
	setString(m, "created_at", x.CreatedAt)

	return m
}

func PlaceOrderResponseFromMessage(m protoreflect.Message) *PlaceOrderResponse {
	return &PlaceOrderResponse{
		OrderId:   getInt(m, "order_id"),
		Total:     getInt(m, "total"),
		CreatedAt: getString(m, "created_at"),
	}
}

func (x *ListProductsRequest) Message() *dynamicpb.Message {
	return dynamicpb.NewMessage(listProductsRequestDesc)
}

func ListProductsRequestFromMessage(protoreflect.Message) *ListProductsRequest {
	return &ListProductsRequest{}
}

func (x *ListProductsResponse) Message() *dynamicpb.Message {
	m := dynamicpb.NewMessage(listProductsResponseDesc)
	for _, p := range x.Products {
		pm := dynamicpb.NewMessage(productDesc)
		setInt(pm, "id", p.Id)
		setString(pm, "title", p.Title)
		setInt(pm, "price", p.Price)
		setInt(pm, "stock", p.Stock)
		setString(pm, "image_url", p.ImageUrl)
		appendMessage(m, "products", pm)
	}

	return m
}

func ListProductsResponseFromMessage(m protoreflect.Message) *ListProductsResponse {
	x := &ListProductsResponse{}
	rangeMessages(m, "products", func(pm protoreflect.Message) {
		x.Products = append(x.Products, &Product{
			Id:       getInt(pm, "id"),
			Title:    getString(pm, "title"),
			Price:    getInt(pm, "price"),
			Stock:    getInt(pm, "stock"),
			ImageUrl: getString(pm, "image_url"),
		})
	})

	return x
}

func field(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func getInt(m protoreflect.Message, name protoreflect.Name) int64 {
	return m.Get(field(m, name)).Int()
}

func getString(m protoreflect.Message, name protoreflect.Name) string {
	return m.Get(field(m, name)).String()
}

func setInt(m protoreflect.Message, name protoreflect.Name, v int64) {
	m.Set(field(m, name), protoreflect.ValueOfInt64(v))
}

func setString(m protoreflect.Message, name protoreflect.Name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func appendMessage(m protoreflect.Message, name protoreflect.Name, item protoreflect.Message) {
	m.Mutable(field(m, name)).List().Append(protoreflect.ValueOfMessage(item))
}

func rangeMessages(m protoreflect.Message, name protoreflect.Name, fn func(protoreflect.Message)) {
	list := m.Get(field(m, name)).List()
	for i := 0; i < list.Len(); i++ {
		fn(list.Get(i).Message())
	}
}
