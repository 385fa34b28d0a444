package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderStatusChanged, 2, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	output, err := reg.Decode(enums.EventOrderStatusChanged, 2, json.RawMessage(`{"to_status":"ready"}`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"to_status": "ready"}, output)

	_, err = reg.Decode(enums.EventOrderStatusChanged, 3, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestOrderDecoderRegistry(t *testing.T) {
	reg := NewOrderDecoderRegistry()

	out, err := reg.Decode(enums.EventOrderStatusChanged, 1, json.RawMessage(`{"order_code":"ABCD2345","from_status":"ready","to_status":"picked_up"}`))
	require.NoError(t, err)
	event, ok := out.(*payloads.OrderStatusChangedEvent)
	require.True(t, ok)
	require.Equal(t, enums.OrderStatusPickedUp, event.ToStatus)

	_, err = reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`not-json`))
	require.Error(t, err)
}
