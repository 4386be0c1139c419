package enums

import "strings"

// OrderStatus is stored as free text. The constants are the values the UI
// knows about; any non-empty string is accepted.
type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "Open"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusClosed     OrderStatus = "Closed"
)

var terminalOrderStatuses = []OrderStatus{
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusClosed,
}

// ProcessedOrderStatuses count towards the dashboard's processed total.
var ProcessedOrderStatuses = []OrderStatus{
	OrderStatusCompleted,
	OrderStatusShipped,
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether orders in this status can no longer be deleted.
func (s OrderStatus) IsTerminal() bool {
	for _, candidate := range terminalOrderStatuses {
		if strings.EqualFold(string(candidate), strings.TrimSpace(string(s))) {
			return true
		}
	}
	return false
}

// NormalizeOrderStatus trims the input and maps well-known values onto their
// canonical spelling. Unknown values pass through trimmed.
func NormalizeOrderStatus(value string) OrderStatus {
	value = strings.TrimSpace(value)
	for _, candidate := range []OrderStatus{OrderStatusOpen, OrderStatusProcessing, OrderStatusShipped, OrderStatusCompleted, OrderStatusClosed} {
		if strings.EqualFold(string(candidate), value) {
			return candidate
		}
	}
	return OrderStatus(value)
}
