package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/db/models"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgpagination "github.com/angelmondragon/orderflow/pkg/pagination"
	"github.com/angelmondragon/orderflow/pkg/types"
)

// TransitionInput is a request to move an order to a new status.
type TransitionInput struct {
	OrderID  uuid.UUID
	Status   string
	DriverID *string
	Actor    auth.Identity
}

// TransitionResult reports the status after the call. Changed is false when
// the order already carried the requested status.
type TransitionResult struct {
	OrderID uuid.UUID         `json:"orderId"`
	Status  enums.OrderStatus `json:"status"`
	Changed bool              `json:"changed"`
}

// ItemInput is one priced line taken from the payment metadata.
type ItemInput struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CreateOrderInput carries everything needed to materialize a paid session.
type CreateOrderInput struct {
	SessionID       string
	PaymentIntentID *string
	CustomerID      string
	VendorID        string
	VendorName      string
	VendorPhone     *string
	Customer        types.CustomerSnapshot
	Currency        enums.Currency
	Items           []ItemInput
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	ServiceFee      decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	FulfillmentType enums.FulfillmentType
	DeliveryAddress *types.Address
	TrackingPin     string
}

// CreateResult returns the order for the session and whether this call created it.
type CreateResult struct {
	Order   *models.Order
	Created bool
}

// TrackInput is the public lookup key. OrderRef is an order code or internal id.
type TrackInput struct {
	OrderRef string
	Pin      string
}

// TrackingItem is the public view of a line item.
type TrackingItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// ProgressStep is one entry of the delivery progress indicator.
type ProgressStep struct {
	Status    enums.OrderStatus `json:"status"`
	Completed bool              `json:"completed"`
	At        *time.Time        `json:"at,omitempty"`
}

// TrackingView is the reduced projection served without authentication. It
// never carries party ids, the pin, customer contact or payment references.
type TrackingView struct {
	OrderCode       string                `json:"orderCode"`
	Status          enums.OrderStatus     `json:"status"`
	VendorName      string                `json:"vendorName"`
	VendorPhone     *string               `json:"vendorPhone,omitempty"`
	FulfillmentType enums.FulfillmentType `json:"fulfillmentType"`
	DeliveryArea    *types.PublicArea     `json:"deliveryArea,omitempty"`
	Currency        enums.Currency        `json:"currency"`
	Items           []TrackingItem        `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	DeliveryFee     decimal.Decimal       `json:"deliveryFee"`
	ServiceFee      decimal.Decimal       `json:"serviceFee"`
	Tax             decimal.Decimal       `json:"tax"`
	Total           decimal.Decimal       `json:"total"`
	Timestamps      models.Timestamps     `json:"timestamps"`
	Progress        []ProgressStep        `json:"progress"`
	PlacedAt        time.Time             `json:"placedAt"`
}

// ListParams scopes a mirror listing. PartyID is required for admins and
// ignored for vendors and customers, who always list their own orders.
type ListParams struct {
	Actor   auth.Identity
	PartyID string
	Status  string
	pkgpagination.Params
}

// OrderSummary is one row of a mirror listing.
type OrderSummary struct {
	OrderID         uuid.UUID             `json:"orderId"`
	OrderCode       string                `json:"orderCode"`
	Status          enums.OrderStatus     `json:"status"`
	FulfillmentType enums.FulfillmentType `json:"fulfillmentType"`
	DriverID        *string               `json:"driverId,omitempty"`
	Currency        enums.Currency        `json:"currency"`
	Total           decimal.Decimal       `json:"total"`
	ItemCount       int                   `json:"itemCount"`
	CustomerName    string                `json:"customerName,omitempty"`
	VendorName      string                `json:"vendorName,omitempty"`
	Timestamps      models.Timestamps     `json:"timestamps"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// ListResult wraps a page of summaries plus the next page cursor.
type ListResult struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"nextCursor,omitempty"`
}

// OrderItemView is a line item in the authenticated order detail.
type OrderItemView struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// StatusChange is one row of the order history.
type StatusChange struct {
	FromStatus *enums.OrderStatus `json:"fromStatus,omitempty"`
	ToStatus   enums.OrderStatus  `json:"toStatus"`
	ActorID    string             `json:"actorId"`
	ActorRole  enums.ActorRole    `json:"actorRole"`
	DriverID   *string            `json:"driverId,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// OrderDetail is the full order as seen by its parties and admins.
type OrderDetail struct {
	OrderID         uuid.UUID              `json:"orderId"`
	OrderCode       string                 `json:"orderCode"`
	Status          enums.OrderStatus      `json:"status"`
	NextStatuses    []enums.OrderStatus    `json:"nextStatuses"`
	CustomerID      string                 `json:"customerId"`
	VendorID        string                 `json:"vendorId"`
	DriverID        *string                `json:"driverId,omitempty"`
	VendorName      string                 `json:"vendorName"`
	VendorPhone     *string                `json:"vendorPhone,omitempty"`
	Customer        types.CustomerSnapshot `json:"customer"`
	Currency        enums.Currency         `json:"currency"`
	Items           []OrderItemView        `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	DeliveryFee     decimal.Decimal        `json:"deliveryFee"`
	ServiceFee      decimal.Decimal        `json:"serviceFee"`
	Tax             decimal.Decimal        `json:"tax"`
	Total           decimal.Decimal        `json:"total"`
	FulfillmentType enums.FulfillmentType  `json:"fulfillmentType"`
	DeliveryAddress *types.Address         `json:"deliveryAddress,omitempty"`
	PaymentStatus   enums.PaymentStatus    `json:"paymentStatus"`
	Timestamps      models.Timestamps      `json:"timestamps"`
	History         []StatusChange         `json:"history"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// StatusUpdate is one fan-out write across the canonical order and both mirrors.
type StatusUpdate struct {
	OrderID    uuid.UUID
	VendorID   string
	CustomerID string
	From       enums.OrderStatus
	To         enums.OrderStatus
	DriverID   *string
	At         time.Time
}

type mirrorQuery struct {
	partyID string
	status  *enums.OrderStatus
	limit   int
	cursor  *pkgpagination.Cursor
}

func toSummary(m models.MirrorSummary) OrderSummary {
	return OrderSummary{
		OrderID:         m.OrderID,
		OrderCode:       m.OrderCode,
		Status:          m.Status,
		FulfillmentType: m.FulfillmentType,
		DriverID:        m.DriverID,
		Currency:        m.Currency,
		Total:           m.Total,
		ItemCount:       m.ItemCount,
		Timestamps:      m.Timestamps(),
		CreatedAt:       m.OrderCreatedAt,
	}
}

func toDetail(o models.Order, history []models.OrderStatusEvent) OrderDetail {
	items := make([]OrderItemView, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	changes := make([]StatusChange, len(history))
	for i, event := range history {
		changes[i] = StatusChange{
			FromStatus: event.FromStatus,
			ToStatus:   event.ToStatus,
			ActorID:    event.ActorID,
			ActorRole:  event.ActorRole,
			DriverID:   event.DriverID,
			OccurredAt: event.OccurredAt,
		}
	}
	return OrderDetail{
		OrderID:         o.ID,
		OrderCode:       o.OrderCode,
		Status:          o.Status,
		NextStatuses:    NextStatuses(o.Status, o.FulfillmentType),
		CustomerID:      o.CustomerID,
		VendorID:        o.VendorID,
		DriverID:        o.DriverID,
		VendorName:      o.VendorName,
		VendorPhone:     o.VendorPhone,
		Customer:        o.Customer,
		Currency:        o.Currency,
		Items:           items,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		ServiceFee:      o.ServiceFee,
		Tax:             o.Tax,
		Total:           o.Total,
		FulfillmentType: o.FulfillmentType,
		DeliveryAddress: o.DeliveryAddress,
		PaymentStatus:   o.PaymentStatus,
		Timestamps:      o.Timestamps(),
		History:         changes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}
