package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/db/models"
)

var (
	// ErrStatusChanged means the order no longer carries the expected status.
	ErrStatusChanged = errors.New("order status changed concurrently")
	// ErrMirrorMissing means a party mirror was absent during a fan-out write.
	ErrMirrorMissing = errors.New("order mirror missing")
)

// Repository persists the canonical order and its party mirrors. Every write
// that changes order state touches all three views.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order, event *models.OrderStatusEvent) error
	ApplyStatus(ctx context.Context, update StatusUpdate) error
	InsertStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	FindMirrors(ctx context.Context, orderID uuid.UUID) (*models.VendorOrderMirror, *models.CustomerOrderMirror, error)
	ListVendorMirrors(ctx context.Context, query mirrorQuery) ([]models.VendorOrderMirror, error)
	ListCustomerMirrors(ctx context.Context, query mirrorQuery) ([]models.CustomerOrderMirror, error)
	ListStatusEvents(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
}
