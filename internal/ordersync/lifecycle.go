package ordersync

import (
	"github.com/kampyn/ordering-gateway/pkg/backend"
	"github.com/kampyn/ordering-gateway/pkg/enums"
)

// nextStatus returns the optimistic guess for the step after an advance.
// The backend owns the real transition table; this only previews it so
// the UI moves before the PATCH lands. Delivery orders pass through
// onTheWay, counter orders go straight to completed.
func nextStatus(order backend.Order) (enums.OrderStatus, bool) {
	switch order.Status {
	case enums.OrderStatusInProgress:
		return enums.OrderStatusReady, true
	case enums.OrderStatusReady:
		if order.OrderType == enums.OrderTypeDelivery {
			return enums.OrderStatusOnTheWay, true
		}
		return enums.OrderStatusCompleted, true
	case enums.OrderStatusOnTheWay:
		return enums.OrderStatusDelivered, true
	default:
		return order.Status, false
	}
}
