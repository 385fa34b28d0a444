package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/config"
)

func TestResourceName(t *testing.T) {
	require.Equal(t, "projects/p1/topics/orders", resourceName("p1", "topics", " orders "))
	require.Equal(t, "projects/other/topics/orders", resourceName("p1", "topics", "projects/other/topics/orders"))
	require.Equal(t, "projects/p1/subscriptions/analytics", resourceName("p1", "subscriptions", "analytics"))
	require.Empty(t, resourceName("p1", "topics", ""))
	require.Empty(t, resourceName("", "topics", "orders"))
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	require.Empty(t, subscriptionNames(config.PubSubConfig{AnalyticsSubscription: "  "}))
	require.Equal(t, []string{"order-analytics"}, subscriptionNames(config.PubSubConfig{AnalyticsSubscription: "order-analytics"}))
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("orders"))
	require.Nil(t, c.Subscription("analytics"))
	require.NoError(t, c.Close())
	require.Error(t, c.Ping(t.Context()))
}
