package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/types"
)

// Order is the canonical record for a paid checkout session.
type Order struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderCode string    `gorm:"column:order_code;type:text;not null;uniqueIndex"`

	CustomerID  string                 `gorm:"column:customer_id;type:text;not null;index"`
	VendorID    string                 `gorm:"column:vendor_id;type:text;not null;index"`
	DriverID    *string                `gorm:"column:driver_id;type:text;index"`
	VendorName  string                 `gorm:"column:vendor_name;type:text;not null"`
	VendorPhone *string                `gorm:"column:vendor_phone;type:text"`
	Customer    types.CustomerSnapshot `gorm:"column:customer;type:jsonb;serializer:json;not null"`

	Currency    enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee decimal.Decimal `gorm:"column:delivery_fee;type:numeric(12,2);not null;default:0"`
	ServiceFee  decimal.Decimal `gorm:"column:service_fee;type:numeric(12,2);not null;default:0"`
	Tax         decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	FulfillmentType enums.FulfillmentType `gorm:"column:fulfillment_type;type:text;not null"`
	DeliveryAddress *types.Address        `gorm:"column:delivery_address;type:jsonb;serializer:json"`

	Status           enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ConfirmedAt      *time.Time        `gorm:"column:confirmed_at"`
	PreparingAt      *time.Time        `gorm:"column:preparing_at"`
	ReadyAt          *time.Time        `gorm:"column:ready_at"`
	OutForDeliveryAt *time.Time        `gorm:"column:out_for_delivery_at"`
	PickedUpAt       *time.Time        `gorm:"column:picked_up_at"`
	DeliveredAt      *time.Time        `gorm:"column:delivered_at"`
	CancelledAt      *time.Time        `gorm:"column:cancelled_at"`
	TrackingPin      string            `gorm:"column:tracking_pin;type:text;not null"`

	StripeSessionID       string              `gorm:"column:stripe_session_id;type:text;not null;uniqueIndex"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;type:text"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'paid'"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Timestamps carries the lifecycle stamps shared by the canonical record and its mirrors.
type Timestamps struct {
	ConfirmedAt      *time.Time `json:"confirmedAt,omitempty"`
	PreparingAt      *time.Time `json:"preparingAt,omitempty"`
	ReadyAt          *time.Time `json:"readyAt,omitempty"`
	OutForDeliveryAt *time.Time `json:"outForDeliveryAt,omitempty"`
	PickedUpAt       *time.Time `json:"pickedUpAt,omitempty"`
	DeliveredAt      *time.Time `json:"deliveredAt,omitempty"`
	CancelledAt      *time.Time `json:"cancelledAt,omitempty"`
}

// Timestamps returns the lifecycle stamps of the order.
func (o Order) Timestamps() Timestamps {
	return Timestamps{
		ConfirmedAt:      o.ConfirmedAt,
		PreparingAt:      o.PreparingAt,
		ReadyAt:          o.ReadyAt,
		OutForDeliveryAt: o.OutForDeliveryAt,
		PickedUpAt:       o.PickedUpAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
	}
}

// ItemCount sums the quantities across all line items.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// StatusTimestampColumn maps a status to the column stamped when it is entered.
// Pending has no stamp; it is the creation status.
func StatusTimestampColumn(status enums.OrderStatus) (string, bool) {
	switch status {
	case enums.OrderStatusConfirmed:
		return "confirmed_at", true
	case enums.OrderStatusPreparing:
		return "preparing_at", true
	case enums.OrderStatusReady:
		return "ready_at", true
	case enums.OrderStatusOutForDelivery:
		return "out_for_delivery_at", true
	case enums.OrderStatusPickedUp:
		return "picked_up_at", true
	case enums.OrderStatusDelivered:
		return "delivered_at", true
	case enums.OrderStatusCancelled:
		return "cancelled_at", true
	default:
		return "", false
	}
}

// StampedAt returns the stamp recorded for status, if any.
func (t Timestamps) StampedAt(status enums.OrderStatus) *time.Time {
	switch status {
	case enums.OrderStatusConfirmed:
		return t.ConfirmedAt
	case enums.OrderStatusPreparing:
		return t.PreparingAt
	case enums.OrderStatusReady:
		return t.ReadyAt
	case enums.OrderStatusOutForDelivery:
		return t.OutForDeliveryAt
	case enums.OrderStatusPickedUp:
		return t.PickedUpAt
	case enums.OrderStatusDelivered:
		return t.DeliveredAt
	case enums.OrderStatusCancelled:
		return t.CancelledAt
	default:
		return nil
	}
}
