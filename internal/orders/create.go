package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/db"
	"github.com/angelmondragon/orderflow/pkg/db/models"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/outbox"
	"github.com/angelmondragon/orderflow/pkg/outbox/payloads"
)

// systemActorID attributes creation rows to the payment listener.
const systemActorID = "payment-webhook"

// CreateFromPayment materializes the order for a completed payment session.
// A session that already produced an order returns it with Created=false.
func (s *service) CreateFromPayment(ctx context.Context, input CreateOrderInput) (*CreateResult, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindBySessionID(ctx, input.SessionID); err == nil {
		return &CreateResult{Order: existing, Created: false}, nil
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by session")
	}

	order, err := s.buildOrder(input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		code, err := s.uniqueOrderCode(ctx, repo)
		if err != nil {
			return err
		}
		order.OrderCode = code

		history := &models.OrderStatusEvent{
			ID:         uuid.New(),
			OrderID:    order.ID,
			ToStatus:   order.Status,
			ActorID:    systemActorID,
			ActorRole:  enums.ActorRoleSystem,
			OccurredAt: order.CreatedAt,
		}
		if err := repo.Create(ctx, order, history); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: systemActorID, Role: enums.ActorRoleSystem.String()},
			OccurredAt:    order.CreatedAt,
			Data: payloads.OrderCreatedEvent{
				OrderID:         order.ID,
				OrderCode:       order.OrderCode,
				CustomerID:      order.CustomerID,
				VendorID:        order.VendorID,
				FulfillmentType: order.FulfillmentType,
				Status:          order.Status,
				Currency:        order.Currency,
				Total:           order.Total,
				ItemCount:       order.ItemCount(),
				StripeSessionID: order.StripeSessionID,
				CreatedAt:       order.CreatedAt,
			},
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// a concurrent delivery of the same session won the insert
			if existing, findErr := s.repo.FindBySessionID(ctx, input.SessionID); findErr == nil {
				return &CreateResult{Order: existing, Created: false}, nil
			}
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeMaterialization, err, "persist order")
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"order_code": order.OrderCode,
			"session_id": order.StripeSessionID,
			"vendor_id":  order.VendorID,
		})
		s.logg.Info(logCtx, "order created from payment")
	}
	return &CreateResult{Order: order, Created: true}, nil
}

func (s *service) uniqueOrderCode(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < maxOrderCodeAttempts; attempt++ {
		code, err := NewOrderCode()
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order code")
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order code")
		}
		if !exists {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeMaterialization, "could not allocate a unique order code")
}

func (s *service) buildOrder(input CreateOrderInput) (*models.Order, error) {
	pin := input.TrackingPin
	if pin == "" {
		generated, err := NewTrackingPin()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking pin")
		}
		pin = generated
	}

	now := s.now()
	orderID := uuid.New()
	items := make([]models.OrderItem, len(input.Items))
	for i, item := range input.Items {
		items[i] = models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: lineTotal(item),
			Position:  i,
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}

	return &models.Order{
		ID:                    orderID,
		CustomerID:            input.CustomerID,
		VendorID:              input.VendorID,
		VendorName:            input.VendorName,
		VendorPhone:           input.VendorPhone,
		Customer:              input.Customer,
		Currency:              currency,
		Subtotal:              input.Subtotal,
		DeliveryFee:           input.DeliveryFee,
		ServiceFee:            input.ServiceFee,
		Tax:                   input.Tax,
		Total:                 input.Total,
		Items:                 items,
		FulfillmentType:       input.FulfillmentType,
		DeliveryAddress:       input.DeliveryAddress,
		Status:                enums.OrderStatusPending,
		TrackingPin:           pin,
		StripeSessionID:       input.SessionID,
		StripePaymentIntentID: input.PaymentIntentID,
		PaymentStatus:         enums.PaymentStatusPaid,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

func lineTotal(item ItemInput) decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// validateCreateInput enforces the order invariants that do not depend on the
// metadata encoding: parties, amounts, the address/fulfillment pairing and the
// totals arithmetic.
func validateCreateInput(input *CreateOrderInput) error {
	input.SessionID = strings.TrimSpace(input.SessionID)
	input.CustomerID = strings.TrimSpace(input.CustomerID)
	input.VendorID = strings.TrimSpace(input.VendorID)
	input.VendorName = strings.TrimSpace(input.VendorName)

	invalid := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}

	switch {
	case input.SessionID == "":
		return invalid("session id required")
	case input.CustomerID == "":
		return invalid("customer id required")
	case input.VendorID == "":
		return invalid("vendor id required")
	case input.VendorName == "":
		return invalid("vendor name required")
	case len(input.Items) == 0:
		return invalid("at least one item required")
	case !input.FulfillmentType.IsValid():
		return invalid("invalid fulfillment type")
	case input.Currency != "" && !input.Currency.IsValid():
		return invalid("invalid currency")
	case input.TrackingPin != "" && !ValidTrackingPin(input.TrackingPin):
		return invalid("tracking pin must be 6 digits")
	}

	if input.FulfillmentType == enums.FulfillmentDelivery {
		if input.DeliveryAddress == nil {
			return invalid("delivery address required for delivery orders")
		}
		input.DeliveryAddress.Normalize()
		if err := input.DeliveryAddress.Validate(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery address")
		}
	} else if input.DeliveryAddress != nil {
		return invalid("pickup orders must not carry a delivery address")
	}

	subtotal := decimal.Zero
	for _, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" || strings.TrimSpace(item.Name) == "" {
			return invalid("item product id and name required")
		}
		if item.Quantity <= 0 {
			return invalid("item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return invalid("item unit price must be non-negative")
		}
		subtotal = subtotal.Add(lineTotal(item))
	}

	for name, amount := range map[string]decimal.Decimal{
		"subtotal":    input.Subtotal,
		"deliveryFee": input.DeliveryFee,
		"serviceFee":  input.ServiceFee,
		"tax":         input.Tax,
		"total":       input.Total,
	} {
		if amount.IsNegative() {
			return invalid(name + " must be non-negative")
		}
	}
	if !input.Subtotal.Equal(subtotal) {
		return pkgerrors.New(pkgerrors.CodeValidation, "subtotal does not match items").
			WithDetails(map[string]any{"expected": subtotal.StringFixed(2), "got": input.Subtotal.StringFixed(2)})
	}
	expectedTotal := input.Subtotal.Add(input.DeliveryFee).Add(input.ServiceFee).Add(input.Tax)
	if !input.Total.Equal(expectedTotal) {
		return pkgerrors.New(pkgerrors.CodeValidation, "total does not match amounts").
			WithDetails(map[string]any{"expected": expectedTotal.StringFixed(2), "got": input.Total.StringFixed(2)})
	}
	return nil
}
