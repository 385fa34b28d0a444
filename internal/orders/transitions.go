package orders

import (
	"github.com/angelmondragon/orderflow/pkg/enums"
)

// allowedTransitions is the directed lifecycle graph. Anything absent is rejected.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:        {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:      {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:      {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:          {enums.OrderStatusOutForDelivery, enums.OrderStatusPickedUp, enums.OrderStatusCancelled},
	enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered},
	enums.OrderStatusPickedUp:       {enums.OrderStatusDelivered},
}

// driverTransitions are the targets an assigned courier may request. The
// courier is assigned by the out_for_delivery write itself, so delivery is the
// only move left to them.
var driverTransitions = map[enums.OrderStatus]bool{
	enums.OrderStatusDelivered: true,
}

// CanTransition reports whether to is an outgoing edge of from.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the outgoing edges of status for the given fulfillment path.
func NextStatuses(status enums.OrderStatus, fulfillment enums.FulfillmentType) []enums.OrderStatus {
	next := []enums.OrderStatus{}
	for _, candidate := range allowedTransitions[status] {
		if matchesFulfillment(candidate, fulfillment) {
			next = append(next, candidate)
		}
	}
	return next
}

// IsDriverReachable reports whether a driver may move an order into status.
func IsDriverReachable(status enums.OrderStatus) bool {
	return driverTransitions[status]
}

// matchesFulfillment keeps delivery-only and pickup-only states on their own path.
func matchesFulfillment(status enums.OrderStatus, fulfillment enums.FulfillmentType) bool {
	switch status {
	case enums.OrderStatusOutForDelivery:
		return fulfillment == enums.FulfillmentDelivery
	case enums.OrderStatusPickedUp:
		return fulfillment == enums.FulfillmentPickup
	default:
		return true
	}
}

// canTransitionOrder combines the graph with the fulfillment path guard.
func canTransitionOrder(from, to enums.OrderStatus, fulfillment enums.FulfillmentType) bool {
	return CanTransition(from, to) && matchesFulfillment(to, fulfillment)
}

// fulfillmentPath is the happy path rendered as progress steps.
func fulfillmentPath(fulfillment enums.FulfillmentType) []enums.OrderStatus {
	handoff := enums.OrderStatusOutForDelivery
	if fulfillment == enums.FulfillmentPickup {
		handoff = enums.OrderStatusPickedUp
	}
	return []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		handoff,
		enums.OrderStatusDelivered,
	}
}
