package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/internal/orders"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
)

type stubTracker struct {
	orders.Service
	input orders.TrackInput
	err   error
}

func (s *stubTracker) Track(_ context.Context, input orders.TrackInput) (*orders.TrackingView, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &orders.TrackingView{OrderCode: "ORD-ABC123", Status: enums.OrderStatusPreparing, VendorName: "Tacos"}, nil
}

func TestTrackReturnsPublicView(t *testing.T) {
	svc := &stubTracker{}
	resp := httptest.NewRecorder()

	Track(svc, logger.Nop()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/track?orderId=%20ord-abc123%20&pin=123456", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ord-abc123", svc.input.OrderRef)
	assert.Equal(t, "123456", svc.input.Pin)
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	assert.Contains(t, resp.Body.String(), `"orderCode":"ORD-ABC123"`)
	assert.Contains(t, resp.Body.String(), `"status":"preparing"`)
}

func TestTrackPassesPinUntouched(t *testing.T) {
	svc := &stubTracker{}
	pin := "%201234567890123456789"

	Track(svc, logger.Nop()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/track?orderId=ORD-ABC123&pin="+pin, nil))

	assert.Equal(t, " 1234567890123456789", svc.input.Pin)
}

func TestTrackMapsErrors(t *testing.T) {
	tests := []struct {
		code   pkgerrors.Code
		status int
	}{
		{code: pkgerrors.CodeValidation, status: http.StatusBadRequest},
		{code: pkgerrors.CodeNotFound, status: http.StatusNotFound},
		{code: pkgerrors.CodeInvalidPin, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			resp := httptest.NewRecorder()
			Track(&stubTracker{err: pkgerrors.New(tt.code, "nope")}, logger.Nop()).
				ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/track?orderId=ORD-ABC123", nil))
			assert.Equal(t, tt.status, resp.Code)
		})
	}
}
