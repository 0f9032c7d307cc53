package notifier

import (
	"fmt"
	"strings"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/money"
)

// FormatOrderMessage собирает текст уведомления оператору о новом заказе.
func FormatOrderMessage(event *domain.OrderPlaced) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order #%d\n", event.OrderID)
	if event.PurchaserHandle != nil && *event.PurchaserHandle != "" {
		fmt.Fprintf(&b, "Customer: @%s (id %s)\n", strings.TrimPrefix(*event.PurchaserHandle, "@"), event.PurchaserID)
	} else {
		fmt.Fprintf(&b, "Customer: id:%s\n", event.PurchaserID)
	}

	for _, line := range event.Lines {
		fmt.Fprintf(&b, "- %s x%d (%s)\n", line.Title, line.Qty, money.Format(line.UnitPrice))
	}

	fmt.Fprintf(&b, "Total: %s", money.Format(event.Total))
	return b.String()
}
