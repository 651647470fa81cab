package checkout

import (
	"fmt"
	"strings"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db/models"
	pkgerrors "github.com/oluwatobiadeoye/kolamart-backend/pkg/errors"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/phone"
)

// Handoff is the plain-text order summary delivered to the vendor's contact
// number. The platform does not process payment; the vendor settles directly
// with the customer from this message.
type Handoff struct {
	Target string `json:"target"`
	Body   string `json:"body"`
}

// BuildHandoff renders the vendor-facing order message and resolves the
// messaging address from the vendor's contact phone.
func BuildHandoff(order *models.Order, vendorPhone, countryCode string) (*Handoff, error) {
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order is required")
	}

	target, err := phone.HandoffAddress(vendorPhone, countryCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "vendor contact phone is invalid")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order #%s\n", strings.ToUpper(order.Reference()))
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d × %s (₦%s) → ₦%s\n",
			item.Quantity, item.Name, formatNaira(item.UnitPrice), formatNaira(item.LineTotal))
	}
	fmt.Fprintf(&b, "Subtotal: ₦%s\n", formatNaira(order.Subtotal))
	if order.CoinsApplied > 0 {
		fmt.Fprintf(&b, "Coin discount: -₦%s\n", formatNaira(order.CoinsApplied))
	}
	fmt.Fprintf(&b, "Amount due: ₦%s\n", formatNaira(order.AmountDue))
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "Address: %s", order.CustomerAddress)

	return &Handoff{Target: target, Body: b.String()}, nil
}

// formatNaira renders a whole-naira amount with thousands separators.
func formatNaira(amount int) string {
	digits := fmt.Sprintf("%d", amount)
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	out := b.String()
	if negative {
		return "-" + out
	}
	return out
}
