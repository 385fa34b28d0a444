package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow/pkg/enums"
)

// MirrorSummary is the denormalized order view copied into each party's
// scope. Status and lifecycle stamps must always equal the canonical order.
type MirrorSummary struct {
	OrderID          uuid.UUID             `gorm:"column:order_id;type:uuid;primaryKey"`
	OrderCode        string                `gorm:"column:order_code;type:text;not null"`
	Status           enums.OrderStatus     `gorm:"column:status;type:text;not null"`
	FulfillmentType  enums.FulfillmentType `gorm:"column:fulfillment_type;type:text;not null"`
	DriverID         *string               `gorm:"column:driver_id;type:text"`
	Currency         enums.Currency        `gorm:"column:currency;type:text;not null"`
	Total            decimal.Decimal       `gorm:"column:total;type:numeric(12,2);not null"`
	ItemCount        int                   `gorm:"column:item_count;not null"`
	ConfirmedAt      *time.Time            `gorm:"column:confirmed_at"`
	PreparingAt      *time.Time            `gorm:"column:preparing_at"`
	ReadyAt          *time.Time            `gorm:"column:ready_at"`
	OutForDeliveryAt *time.Time            `gorm:"column:out_for_delivery_at"`
	PickedUpAt       *time.Time            `gorm:"column:picked_up_at"`
	DeliveredAt      *time.Time            `gorm:"column:delivered_at"`
	CancelledAt      *time.Time            `gorm:"column:cancelled_at"`
	OrderCreatedAt   time.Time             `gorm:"column:order_created_at;not null"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorOrderMirror is the vendor-scoped copy of an order.
type VendorOrderMirror struct {
	VendorID     string `gorm:"column:vendor_id;type:text;primaryKey"`
	CustomerName string `gorm:"column:customer_name;type:text;not null"`
	MirrorSummary
}

func (VendorOrderMirror) TableName() string { return "vendor_order_mirrors" }

// CustomerOrderMirror is the customer-scoped copy of an order.
type CustomerOrderMirror struct {
	CustomerID string `gorm:"column:customer_id;type:text;primaryKey"`
	VendorName string `gorm:"column:vendor_name;type:text;not null"`
	MirrorSummary
}

func (CustomerOrderMirror) TableName() string { return "customer_order_mirrors" }

// NewMirrorSummary projects the canonical order into the shared mirror shape.
func NewMirrorSummary(o Order) MirrorSummary {
	return MirrorSummary{
		OrderID:          o.ID,
		OrderCode:        o.OrderCode,
		Status:           o.Status,
		FulfillmentType:  o.FulfillmentType,
		DriverID:         o.DriverID,
		Currency:         o.Currency,
		Total:            o.Total,
		ItemCount:        o.ItemCount(),
		ConfirmedAt:      o.ConfirmedAt,
		PreparingAt:      o.PreparingAt,
		ReadyAt:          o.ReadyAt,
		OutForDeliveryAt: o.OutForDeliveryAt,
		PickedUpAt:       o.PickedUpAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		OrderCreatedAt:   o.CreatedAt,
	}
}

// Timestamps returns the lifecycle stamps held by the mirror.
func (m MirrorSummary) Timestamps() Timestamps {
	return Timestamps{
		ConfirmedAt:      m.ConfirmedAt,
		PreparingAt:      m.PreparingAt,
		ReadyAt:          m.ReadyAt,
		OutForDeliveryAt: m.OutForDeliveryAt,
		PickedUpAt:       m.PickedUpAt,
		DeliveredAt:      m.DeliveredAt,
		CancelledAt:      m.CancelledAt,
	}
}
