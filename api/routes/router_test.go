package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/internal/orders"
	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubOrders struct {
	orders.Service
}

func (stubOrders) Track(_ context.Context, input orders.TrackInput) (*orders.TrackingView, error) {
	return &orders.TrackingView{OrderCode: input.OrderRef, Status: enums.OrderStatusPending}, nil
}

func (stubOrders) Transition(_ context.Context, input orders.TransitionInput) (*orders.TransitionResult, error) {
	return &orders.TransitionResult{OrderID: input.OrderID, Status: enums.OrderStatus(input.Status), Changed: true}, nil
}

func (stubOrders) ListVendorOrders(context.Context, orders.ListParams) (*orders.ListResult, error) {
	return &orders.ListResult{Orders: []orders.OrderSummary{}}, nil
}

func (stubOrders) ListCustomerOrders(context.Context, orders.ListParams) (*orders.ListResult, error) {
	return &orders.ListResult{Orders: []orders.OrderSummary{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "orderflow-test", ExpirationMinutes: 10},
		Tracking: config.TrackingConfig{
			RateLimitWindow: time.Minute,
			RateLimitPerIP:  10,
			AllowedOrigins:  []string{"https://track.example.com"},
		},
	}
}

func newTestRouter(t *testing.T, dbErr error) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(registry)
	handler := NewRouter(cfg, logger.Nop(), stubPinger{err: dbErr}, nil, nil, stubOrders{}, nil, nil, nil, m, registry)
	return handler, cfg
}

func bearer(t *testing.T, cfg *config.Config, identity auth.Identity) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), identity)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealthEndpoints(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestHealthReadyFailsWhenDatabaseDown(t *testing.T) {
	handler, _ := newTestRouter(t, context.DeadlineExceeded)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestTrackingIsPublic(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/track?orderId=ORD-ABC123", nil)
	req.Header.Set("Origin", "https://track.example.com")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "https://track.example.com", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Body.String(), "ORD-ABC123")
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/track?orderId=ORD-ABC123", nil))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestWebhookRoutesRejectUnsignedPayloads(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	for _, path := range []string{"/webhooks/payment", "/api/v1/webhooks/stripe"} {
		t.Run(path, func(t *testing.T) {
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{}`)))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Contains(t, resp.Body.String(), "SIGNATURE_VERIFICATION_FAILED")
		})
	}
}

func TestAPIRequiresToken(t *testing.T) {
	handler, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/status", bytes.NewBufferString(`{"status":"confirmed"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestTransitionRouteWithToken(t *testing.T) {
	handler, cfg := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/status", bytes.NewBufferString(`{"status":"confirmed"}`))
	req.Header.Set("Authorization", bearer(t, cfg, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)
}

func TestListingRoutesEnforceRoles(t *testing.T) {
	handler, cfg := newTestRouter(t, nil)

	tests := []struct {
		path   string
		role   enums.ActorRole
		status int
	}{
		{path: "/api/v1/vendor/orders", role: enums.ActorRoleVendor, status: http.StatusOK},
		{path: "/api/v1/vendor/orders", role: enums.ActorRoleCustomer, status: http.StatusForbidden},
		{path: "/api/v1/vendor/orders", role: enums.ActorRoleDriver, status: http.StatusForbidden},
		{path: "/api/v1/customer/orders", role: enums.ActorRoleCustomer, status: http.StatusOK},
		{path: "/api/v1/customer/orders", role: enums.ActorRoleVendor, status: http.StatusForbidden},
		{path: "/api/v1/customer/orders", role: enums.ActorRoleAdmin, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", bearer(t, cfg, auth.Identity{UID: "user-1", Role: tt.role}))
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			assert.Equal(t, tt.status, resp.Code)
		})
	}
}

type memRedis struct {
	data map[string]string
}

func (m *memRedis) Get(_ context.Context, key string) (string, error) {
	return m.data[key], nil
}

func (m *memRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memRedis) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memRedis) FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) {
	return true, 1, nil
}

func (m *memRedis) Ping(context.Context) error {
	return nil
}

type countingOrders struct {
	stubOrders
	transitions *int
}

func (c countingOrders) Transition(ctx context.Context, input orders.TransitionInput) (*orders.TransitionResult, error) {
	*c.transitions++
	return c.stubOrders.Transition(ctx, input)
}

func TestTransitionReplaysIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	store := &memRedis{data: map[string]string{}}
	calls := 0
	registry := prometheus.NewRegistry()
	handler := NewRouter(cfg, logger.Nop(), stubPinger{}, store, nil, countingOrders{transitions: &calls}, nil, nil, nil, metrics.NewOrderMetrics(registry), registry)

	path := "/api/v1/orders/" + uuid.NewString() + "/status"
	token := bearer(t, cfg, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor})
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(`{"status":"confirmed"}`))
		req.Header.Set("Authorization", token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "key-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	second := send()

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
	assert.Len(t, store.data, 1)
}
