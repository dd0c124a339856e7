package usecase

import "clothing-store/internal/data/entity"

var orderTransitions = map[entity.OrderStatus][]entity.OrderStatus{
	entity.OrderStatusPending: {entity.OrderStatusShipped, entity.OrderStatusCanceled},
	entity.OrderStatusShipped: {entity.OrderStatusDelivered, entity.OrderStatusCanceled},
}

// CanTransition reports whether an order may move from one status to another.
// Canceling a canceled order is allowed and changes nothing.
func CanTransition(from, to entity.OrderStatus) bool {
	if from == entity.OrderStatusCanceled && to == entity.OrderStatusCanceled {
		return true
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to entity.OrderStatus) error {
	if !CanTransition(from, to) {
		return invalid("cannot change order status from %s to %s", from, to)
	}
	return nil
}
