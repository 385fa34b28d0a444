package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow/api/middleware"
	internalorders "github.com/angelmondragon/orderflow/internal/orders"
	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
)

type stubService struct {
	internalorders.Service

	transitionInput internalorders.TransitionInput
	transitionErr   error
	listParams      internalorders.ListParams
	listCalls       []string
	detailActor     auth.Identity
	detailErr       error
}

func (s *stubService) Transition(_ context.Context, input internalorders.TransitionInput) (*internalorders.TransitionResult, error) {
	s.transitionInput = input
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return &internalorders.TransitionResult{OrderID: input.OrderID, Status: enums.OrderStatus(input.Status), Changed: true}, nil
}

func (s *stubService) GetOrder(_ context.Context, actor auth.Identity, orderID uuid.UUID) (*internalorders.OrderDetail, error) {
	s.detailActor = actor
	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return &internalorders.OrderDetail{OrderID: orderID, OrderCode: "ORD-ABC123", Status: enums.OrderStatusPending}, nil
}

func (s *stubService) ListVendorOrders(_ context.Context, params internalorders.ListParams) (*internalorders.ListResult, error) {
	s.listParams = params
	s.listCalls = append(s.listCalls, "vendor")
	return &internalorders.ListResult{Orders: []internalorders.OrderSummary{}}, nil
}

func (s *stubService) ListCustomerOrders(_ context.Context, params internalorders.ListParams) (*internalorders.ListResult, error) {
	s.listParams = params
	s.listCalls = append(s.listCalls, "customer")
	return &internalorders.ListResult{Orders: []internalorders.OrderSummary{}, NextCursor: "next"}, nil
}

func newRouter(svc internalorders.Service, identity auth.Identity) http.Handler {
	logg := logger.Nop()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), identity)))
		})
	})
	r.Post("/orders/{orderId}/status", TransitionStatus(svc, logg))
	r.Get("/orders/{orderId}", Detail(svc, logg))
	r.Get("/vendor/orders", VendorList(svc, logg))
	r.Get("/customer/orders", CustomerList(svc, logg))
	return r
}

func TestTransitionStatusPassesActorAndBody(t *testing.T) {
	svc := &stubService{}
	vendor := auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/status", bytes.NewBufferString(`{"status":"confirmed"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	newRouter(svc, vendor).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, orderID, svc.transitionInput.OrderID)
	assert.Equal(t, "confirmed", svc.transitionInput.Status)
	assert.Equal(t, vendor, svc.transitionInput.Actor)
	assert.Nil(t, svc.transitionInput.DriverID)

	var body struct {
		Data struct {
			Success bool   `json:"success"`
			OrderID string `json:"orderId"`
			Status  string `json:"status"`
			Changed bool   `json:"changed"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Data.Success)
	assert.Equal(t, orderID.String(), body.Data.OrderID)
	assert.Equal(t, "confirmed", body.Data.Status)
	assert.True(t, body.Data.Changed)
}

func TestTransitionStatusForwardsDriverID(t *testing.T) {
	svc := &stubService{}
	orderID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID.String()+"/status", bytes.NewBufferString(`{"status":"out_for_delivery","driverId":"driver-9"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	newRouter(svc, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.transitionInput.DriverID)
	assert.Equal(t, "driver-9", *svc.transitionInput.DriverID)
}

func TestTransitionStatusRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		orderID string
		body    string
	}{
		{name: "non uuid order", orderID: "not-a-uuid", body: `{"status":"confirmed"}`},
		{name: "missing status", orderID: uuid.NewString(), body: `{}`},
		{name: "unknown field", orderID: uuid.NewString(), body: `{"status":"confirmed","extra":true}`},
		{name: "malformed json", orderID: uuid.NewString(), body: `{"status":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{}
			req := httptest.NewRequest(http.MethodPost, "/orders/"+tt.orderID+"/status", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			newRouter(svc, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}).ServeHTTP(resp, req)

			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, uuid.Nil, svc.transitionInput.OrderID)
		})
	}
}

func TestTransitionStatusMapsServiceErrors(t *testing.T) {
	tests := []struct {
		code   pkgerrors.Code
		status int
	}{
		{code: pkgerrors.CodeInvalidTransition, status: http.StatusUnprocessableEntity},
		{code: pkgerrors.CodeForbidden, status: http.StatusForbidden},
		{code: pkgerrors.CodeStateConflict, status: http.StatusConflict},
		{code: pkgerrors.CodeNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			svc := &stubService{transitionErr: pkgerrors.New(tt.code, "nope")}
			req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/status", bytes.NewBufferString(`{"status":"delivered"}`))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			newRouter(svc, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}).ServeHTTP(resp, req)

			require.Equal(t, tt.status, resp.Code)
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, string(tt.code), body.Error.Code)
		})
	}
}

func TestDetailUsesCallerIdentity(t *testing.T) {
	svc := &stubService{}
	customer := auth.Identity{UID: "cust-1", Role: enums.ActorRoleCustomer}
	orderID := uuid.New()

	resp := httptest.NewRecorder()
	newRouter(svc, customer).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, customer, svc.detailActor)
	assert.Contains(t, resp.Body.String(), "ORD-ABC123")
}

func TestDetailNotVisible(t *testing.T) {
	svc := &stubService{detailErr: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	resp := httptest.NewRecorder()
	newRouter(svc, auth.Identity{UID: "cust-2", Role: enums.ActorRoleCustomer}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListsParseQuery(t *testing.T) {
	svc := &stubService{}
	admin := auth.Identity{UID: "admin-1", Role: enums.ActorRoleAdmin}

	resp := httptest.NewRecorder()
	newRouter(svc, admin).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/vendor/orders?limit=10&cursor=abc&status=ready&vendorId=vendor-7", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 10, svc.listParams.Limit)
	assert.Equal(t, "abc", svc.listParams.Cursor)
	assert.Equal(t, "ready", svc.listParams.Status)
	assert.Equal(t, "vendor-7", svc.listParams.PartyID)
	assert.Equal(t, admin, svc.listParams.Actor)

	resp = httptest.NewRecorder()
	newRouter(svc, admin).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/customer/orders?customerId=cust-3", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 25, svc.listParams.Limit)
	assert.Equal(t, "cust-3", svc.listParams.PartyID)
	assert.Contains(t, resp.Body.String(), `"nextCursor":"next"`)

	assert.Equal(t, []string{"vendor", "customer"}, svc.listCalls)
}

func TestListsRejectOutOfRangeLimit(t *testing.T) {
	svc := &stubService{}

	resp := httptest.NewRecorder()
	newRouter(svc, auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/vendor/orders?limit=1000", nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, svc.listCalls)
}
