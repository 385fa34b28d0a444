package orders

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
)

func TestTrackByCodeIsCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, deliveryInput("cs_track_code"))

	view, err := h.svc.Track(context.Background(), TrackInput{OrderRef: "  " + strings.ToLower(order.OrderCode) + " "})
	require.NoError(t, err)
	require.Equal(t, order.OrderCode, view.OrderCode)
	require.Equal(t, enums.OrderStatusPending, view.Status)
	require.Equal(t, "Green Leaf Kitchen", view.VendorName)
	require.Len(t, view.Items, 2)
	require.NotNil(t, view.DeliveryArea)
	require.Equal(t, "Austin", view.DeliveryArea.City)
}

func TestTrackPinRules(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, deliveryInput("cs_track_pin"))

	_, err := h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode, Pin: order.TrackingPin})
	require.NoError(t, err)

	wrong := "000000"
	if order.TrackingPin == wrong {
		wrong = "111111"
	}
	_, err = h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode, Pin: wrong})
	require.Equal(t, pkgerrors.CodeInvalidPin, pkgerrors.CodeOf(err))

	_, err = h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode})
	require.NoError(t, err)

	for _, near := range []string{" " + order.TrackingPin, order.TrackingPin + " ", order.TrackingPin + "0"} {
		_, err = h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode, Pin: near})
		require.Equal(t, pkgerrors.CodeInvalidPin, pkgerrors.CodeOf(err), "pin %q", near)
	}
}

func TestTrackFallsBackToInternalID(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, deliveryInput("cs_track_id"))

	view, err := h.svc.Track(context.Background(), TrackInput{OrderRef: order.ID.String()})
	require.NoError(t, err)
	require.Equal(t, order.OrderCode, view.OrderCode)
}

func TestTrackUnknownReference(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Track(context.Background(), TrackInput{OrderRef: "NOPE2345"})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = h.svc.Track(context.Background(), TrackInput{OrderRef: "00000000-0000-0000-0000-000000000001"})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = h.svc.Track(context.Background(), TrackInput{OrderRef: " "})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestTrackingViewHidesPrivateFields(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, deliveryInput("cs_track_private"))

	view, err := h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode})
	require.NoError(t, err)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	body := string(raw)

	for _, hidden := range []string{
		order.ID.String(),
		order.TrackingPin,
		"cs_track_private",
		"cust-1",
		"vendor-1",
		"ada@example.com",
		"Ada Lovelace",
		"100 Congress Ave",
		"78701",
	} {
		require.NotContains(t, body, hidden)
	}
	require.Contains(t, body, `"orderCode"`)
}

func TestTrackingProgress(t *testing.T) {
	h := newHarness(t)
	order := h.create(t, pickupInput("cs_track_progress"))
	h.advance(t, order, enums.OrderStatusConfirmed, enums.OrderStatusPreparing)

	view, err := h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode})
	require.NoError(t, err)
	require.Nil(t, view.DeliveryArea)
	require.Len(t, view.Progress, 6)

	completed := map[enums.OrderStatus]bool{}
	for _, step := range view.Progress {
		completed[step.Status] = step.Completed
	}
	require.True(t, completed[enums.OrderStatusPending])
	require.True(t, completed[enums.OrderStatusConfirmed])
	require.True(t, completed[enums.OrderStatusPreparing])
	require.False(t, completed[enums.OrderStatusReady])
	require.False(t, completed[enums.OrderStatusPickedUp])
	require.Equal(t, enums.OrderStatusPickedUp, view.Progress[4].Status)

	h.transition(t, order, vendorActor, "cancelled")
	view, err = h.svc.Track(context.Background(), TrackInput{OrderRef: order.OrderCode})
	require.NoError(t, err)
	last := view.Progress[len(view.Progress)-1]
	require.Equal(t, enums.OrderStatusCancelled, last.Status)
	require.True(t, last.Completed)
	require.NotNil(t, last.At)
}
