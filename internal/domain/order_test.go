package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/DRSN-tech/storefront/pkg/e"
)

func TestNewOrderComputesTotal(t *testing.T) {
	order, err := NewOrder("1", nil, []OrderItem{
		NewOrderItem(1, 2, 550, "Tea"),
		NewOrderItem(2, 1, 1000, "Mug"),
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if order.Total != 2100 {
		t.Fatalf("total = %d, want 2100", order.Total)
	}
}

func TestNewOrderOverflow(t *testing.T) {
	_, err := NewOrder("1", nil, []OrderItem{
		NewOrderItem(1, 2, math.MaxInt64/2+1, "Gold"),
	})
	if !errors.Is(err, e.ErrAmountOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestNewOrderPlacedCopiesLines(t *testing.T) {
	handle := "alice"
	order := &Order{ID: 7, PurchaserID: "42", PurchaserHandle: &handle, Total: 1100,
		Items: []OrderItem{NewOrderItem(1, 2, 550, "Tea")}}

	ev := NewOrderPlaced(order)
	if ev.OrderID != 7 || len(ev.Lines) != 1 || ev.Lines[0].Title != "Tea" || *ev.PurchaserHandle != "alice" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHasStock(t *testing.T) {
	p := NewProduct("Tea", 550, 3, nil)
	if !p.HasStock(3) || p.HasStock(4) || p.HasStock(0) {
		t.Fatalf("HasStock misbehaves for stock %d", p.Stock)
	}
}
