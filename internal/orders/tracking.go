package orders

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow/pkg/db"
	"github.com/angelmondragon/orderflow/pkg/db/models"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/types"
)

// Track serves the public tracking view. The order code is tried first and
// the internal id second. A pin is checked only when the caller supplies one.
func (s *service) Track(ctx context.Context, input TrackInput) (*TrackingView, error) {
	view, err := s.track(ctx, input)
	s.metrics.ObserveTracking(trackingOutcome(err))
	return view, err
}

func (s *service) track(ctx context.Context, input TrackInput) (*TrackingView, error) {
	ref := strings.TrimSpace(input.OrderRef)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId required")
	}

	order, err := s.repo.FindByCode(ctx, NormalizeOrderCode(ref))
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by code")
	}
	if order == nil {
		id, parseErr := uuid.Parse(ref)
		if parseErr != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		order, err = s.repo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup order by id")
		}
	}

	// the pin is compared exactly as supplied; an empty value means none was given
	if order.TrackingPin != "" && input.Pin != "" &&
		subtle.ConstantTimeCompare([]byte(order.TrackingPin), []byte(input.Pin)) != 1 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidPin, "tracking pin mismatch")
	}

	view := toTrackingView(*order)
	return &view, nil
}

func trackingOutcome(err error) string {
	if err == nil {
		return "found"
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeInvalidPin:
		return "invalid_pin"
	case pkgerrors.CodeValidation:
		return "invalid"
	default:
		return "error"
	}
}

func toTrackingView(o models.Order) TrackingView {
	items := make([]TrackingItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = TrackingItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}
	var area *types.PublicArea
	if o.DeliveryAddress != nil {
		public := o.DeliveryAddress.PublicArea()
		area = &public
	}
	return TrackingView{
		OrderCode:       o.OrderCode,
		Status:          o.Status,
		VendorName:      o.VendorName,
		VendorPhone:     o.VendorPhone,
		FulfillmentType: o.FulfillmentType,
		DeliveryArea:    area,
		Currency:        o.Currency,
		Items:           items,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		ServiceFee:      o.ServiceFee,
		Tax:             o.Tax,
		Total:           o.Total,
		Timestamps:      o.Timestamps(),
		Progress:        progressSteps(o),
		PlacedAt:        o.CreatedAt,
	}
}

// progressSteps renders the fulfillment path with completion flags. Cancelled
// orders keep the steps they reached and end with the cancellation.
func progressSteps(o models.Order) []ProgressStep {
	stamps := o.Timestamps()
	path := fulfillmentPath(o.FulfillmentType)
	reached := -1
	for i, status := range path {
		if status == o.Status {
			reached = i
		}
	}

	steps := make([]ProgressStep, 0, len(path)+1)
	for i, status := range path {
		at := stamps.StampedAt(status)
		if status == enums.OrderStatusPending {
			created := o.CreatedAt
			at = &created
		}
		steps = append(steps, ProgressStep{
			Status:    status,
			Completed: at != nil || i <= reached,
			At:        at,
		})
	}
	if o.Status == enums.OrderStatusCancelled {
		steps = append(steps, ProgressStep{
			Status:    enums.OrderStatusCancelled,
			Completed: true,
			At:        stamps.CancelledAt,
		})
	}
	return steps
}
