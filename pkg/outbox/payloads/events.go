package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow/pkg/enums"
)

// OrderCreatedEvent is emitted once per materialized payment session.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	OrderCode       string                `json:"order_code"`
	CustomerID      string                `json:"customer_id"`
	VendorID        string                `json:"vendor_id"`
	FulfillmentType enums.FulfillmentType `json:"fulfillment_type"`
	Status          enums.OrderStatus     `json:"status"`
	Currency        enums.Currency        `json:"currency"`
	Total           decimal.Decimal       `json:"total"`
	ItemCount       int                   `json:"item_count"`
	StripeSessionID string                `json:"stripe_session_id"`
	CreatedAt       time.Time             `json:"created_at"`
}

// OrderStatusChangedEvent is emitted for every applied lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	OrderCode  string            `json:"order_code"`
	CustomerID string            `json:"customer_id"`
	VendorID   string            `json:"vendor_id"`
	DriverID   *string           `json:"driver_id,omitempty"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	ChangedAt  time.Time         `json:"changed_at"`
}
