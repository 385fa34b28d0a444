package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/enums"
)

func TestCanTransitionMatchesTable(t *testing.T) {
	allowed := map[[2]enums.OrderStatus]bool{
		{enums.OrderStatusPending, enums.OrderStatusConfirmed}:        true,
		{enums.OrderStatusPending, enums.OrderStatusCancelled}:        true,
		{enums.OrderStatusConfirmed, enums.OrderStatusPreparing}:      true,
		{enums.OrderStatusConfirmed, enums.OrderStatusCancelled}:      true,
		{enums.OrderStatusPreparing, enums.OrderStatusReady}:          true,
		{enums.OrderStatusPreparing, enums.OrderStatusCancelled}:      true,
		{enums.OrderStatusReady, enums.OrderStatusOutForDelivery}:     true,
		{enums.OrderStatusReady, enums.OrderStatusPickedUp}:           true,
		{enums.OrderStatusReady, enums.OrderStatusCancelled}:          true,
		{enums.OrderStatusOutForDelivery, enums.OrderStatusDelivered}: true,
		{enums.OrderStatusPickedUp, enums.OrderStatusDelivered}:       true,
	}

	for _, from := range enums.OrderStatuses() {
		for _, to := range enums.OrderStatuses() {
			want := allowed[[2]enums.OrderStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatusesHaveNoEdges(t *testing.T) {
	for _, status := range enums.OrderStatuses() {
		if status.IsTerminal() {
			require.Empty(t, NextStatuses(status, enums.FulfillmentDelivery), status)
			require.Empty(t, NextStatuses(status, enums.FulfillmentPickup), status)
		}
	}
}

func TestFulfillmentPathGuard(t *testing.T) {
	require.Equal(t,
		[]enums.OrderStatus{enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
		NextStatuses(enums.OrderStatusReady, enums.FulfillmentDelivery))
	require.Equal(t,
		[]enums.OrderStatus{enums.OrderStatusPickedUp, enums.OrderStatusCancelled},
		NextStatuses(enums.OrderStatusReady, enums.FulfillmentPickup))

	require.False(t, canTransitionOrder(enums.OrderStatusReady, enums.OrderStatusPickedUp, enums.FulfillmentDelivery))
	require.False(t, canTransitionOrder(enums.OrderStatusReady, enums.OrderStatusOutForDelivery, enums.FulfillmentPickup))
	require.True(t, canTransitionOrder(enums.OrderStatusReady, enums.OrderStatusCancelled, enums.FulfillmentPickup))
}

func TestDriverReachable(t *testing.T) {
	require.False(t, IsDriverReachable(enums.OrderStatusOutForDelivery))
	require.True(t, IsDriverReachable(enums.OrderStatusDelivered))
	require.False(t, IsDriverReachable(enums.OrderStatusConfirmed))
	require.False(t, IsDriverReachable(enums.OrderStatusCancelled))
}

func TestFulfillmentPath(t *testing.T) {
	delivery := fulfillmentPath(enums.FulfillmentDelivery)
	pickup := fulfillmentPath(enums.FulfillmentPickup)
	require.Len(t, delivery, 6)
	require.Equal(t, enums.OrderStatusOutForDelivery, delivery[4])
	require.Equal(t, enums.OrderStatusPickedUp, pickup[4])

	for i := 1; i < len(delivery); i++ {
		require.True(t, CanTransition(delivery[i-1], delivery[i]))
		require.True(t, CanTransition(pickup[i-1], pickup[i]))
	}
}
