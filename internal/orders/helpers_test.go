package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/db"
	"github.com/angelmondragon/orderflow/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow/pkg/db/models"
	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/outbox"
	pkgpagination "github.com/angelmondragon/orderflow/pkg/pagination"
	"github.com/angelmondragon/orderflow/pkg/types"
)

var (
	vendorActor   = auth.Identity{UID: "vendor-1", Role: enums.ActorRoleVendor}
	otherVendor   = auth.Identity{UID: "vendor-2", Role: enums.ActorRoleVendor}
	customerActor = auth.Identity{UID: "cust-1", Role: enums.ActorRoleCustomer}
	driverActor   = auth.Identity{UID: "driver-1", Role: enums.ActorRoleDriver}
	adminActor    = auth.Identity{UID: "admin-1", Role: enums.ActorRoleAdmin}
)

// stepClock advances one second per reading so every write gets a distinct stamp.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type harness struct {
	svc   Service
	conn  *gorm.DB
	repo  Repository
	clock *stepClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithRepo(t, nil)
}

func newHarnessWithRepo(t *testing.T, wrap func(Repository) Repository) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	if wrap != nil {
		repo = wrap(repo)
	}
	clock := newStepClock()
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Tx:     db.NewFromGorm(conn),
		Outbox: outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Logger: logger.Nop(),
		Clock:  clock.Now,
	})
	require.NoError(t, err)
	return &harness{svc: svc, conn: conn, repo: NewRepository(conn), clock: clock}
}

func ptr[T any](v T) *T {
	return &v
}

func money(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func deliveryInput(sessionID string) CreateOrderInput {
	return CreateOrderInput{
		SessionID:   sessionID,
		CustomerID:  "cust-1",
		VendorID:    "vendor-1",
		VendorName:  "Green Leaf Kitchen",
		VendorPhone: ptr("+15125550100"),
		Customer: types.CustomerSnapshot{
			Name:  "Ada Lovelace",
			Email: "ada@example.com",
			Phone: ptr("+15125550199"),
		},
		Currency: enums.CurrencyUSD,
		Items: []ItemInput{
			{ProductID: "prod-bowl", Name: "Grain Bowl", UnitPrice: money("10.00"), Quantity: 2},
			{ProductID: "prod-tea", Name: "Iced Tea", UnitPrice: money("5.00"), Quantity: 1},
		},
		Subtotal:        money("25.00"),
		DeliveryFee:     money("3.99"),
		ServiceFee:      money("1.50"),
		Tax:             money("2.06"),
		Total:           money("32.55"),
		FulfillmentType: enums.FulfillmentDelivery,
		DeliveryAddress: &types.Address{
			Line1:      "100 Congress Ave",
			City:       "Austin",
			State:      "TX",
			PostalCode: "78701",
		},
	}
}

func pickupInput(sessionID string) CreateOrderInput {
	input := deliveryInput(sessionID)
	input.FulfillmentType = enums.FulfillmentPickup
	input.DeliveryAddress = nil
	input.DeliveryFee = decimal.Zero
	input.Total = money("28.56")
	return input
}

func (h *harness) create(t *testing.T, input CreateOrderInput) *models.Order {
	t.Helper()
	res, err := h.svc.CreateFromPayment(context.Background(), input)
	require.NoError(t, err)
	require.True(t, res.Created)
	return res.Order
}

func (h *harness) transition(t *testing.T, order *models.Order, actor auth.Identity, status string) *TransitionResult {
	t.Helper()
	res, err := h.svc.Transition(context.Background(), TransitionInput{OrderID: order.ID, Status: status, Actor: actor})
	require.NoError(t, err)
	return res
}

func (h *harness) advance(t *testing.T, order *models.Order, statuses ...enums.OrderStatus) {
	t.Helper()
	for _, status := range statuses {
		h.transition(t, order, adminActor, status.String())
	}
}

func (h *harness) reload(t *testing.T, order *models.Order) *models.Order {
	t.Helper()
	fresh, err := h.repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	return fresh
}

// requireMirrorsConverged asserts both mirrors carry the canonical status, driver and stamps.
func (h *harness) requireMirrorsConverged(t *testing.T, order *models.Order) {
	t.Helper()
	canonical := h.reload(t, order)
	vendorMirror, customerMirror, err := h.repo.FindMirrors(context.Background(), order.ID)
	require.NoError(t, err)

	for _, mirror := range []models.MirrorSummary{vendorMirror.MirrorSummary, customerMirror.MirrorSummary} {
		require.Equal(t, canonical.Status, mirror.Status)
		require.Equal(t, canonical.DriverID, mirror.DriverID)
		requireSameStamps(t, canonical.Timestamps(), mirror.Timestamps())
	}
	require.Equal(t, canonical.VendorID, vendorMirror.VendorID)
	require.Equal(t, canonical.CustomerID, customerMirror.CustomerID)
}

func requireSameStamps(t *testing.T, want, got models.Timestamps) {
	t.Helper()
	for _, status := range enums.OrderStatuses() {
		w, g := want.StampedAt(status), got.StampedAt(status)
		if w == nil || g == nil {
			require.Equal(t, w == nil, g == nil, "stamp presence for %s", status)
			continue
		}
		require.True(t, w.Equal(*g), "stamp for %s: want %s got %s", status, w, g)
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func pageParams(limit int, cursor string) pkgpagination.Params {
	return pkgpagination.Params{Limit: limit, Cursor: cursor}
}
