package enums

import "fmt"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// forward lists the single next step along the happy path.
var forward = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusConfirmed,
	OrderStatusConfirmed:  OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
// cancelled and refunded are reachable from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if next == OrderStatusCancelled || next == OrderStatusRefunded {
		return true
	}
	return forward[s] == next
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
