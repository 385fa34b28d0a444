package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow/pkg/auth"
	"github.com/angelmondragon/orderflow/pkg/db"
	"github.com/angelmondragon/orderflow/pkg/db/models"
	"github.com/angelmondragon/orderflow/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/metrics"
	"github.com/angelmondragon/orderflow/pkg/outbox"
	"github.com/angelmondragon/orderflow/pkg/outbox/payloads"
	pkgpagination "github.com/angelmondragon/orderflow/pkg/pagination"
)

// Service is the order lifecycle engine.
type Service interface {
	Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	CreateFromPayment(ctx context.Context, input CreateOrderInput) (*CreateResult, error)
	Track(ctx context.Context, input TrackInput) (*TrackingView, error)
	GetOrder(ctx context.Context, actor auth.Identity, orderID uuid.UUID) (*OrderDetail, error)
	ListVendorOrders(ctx context.Context, params ListParams) (*ListResult, error)
	ListCustomerOrders(ctx context.Context, params ListParams) (*ListResult, error)
}

// ServiceParams wires the engine's collaborators.
type ServiceParams struct {
	Repo    Repository
	Tx      db.TxRunner
	Outbox  outbox.Emitter
	Logger  *logger.Logger
	Metrics *metrics.OrderMetrics
	Clock   func() time.Time
}

type service struct {
	repo    Repository
	tx      db.TxRunner
	outbox  outbox.Emitter
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

const maxOrderCodeAttempts = 5

// NewService builds the order lifecycle engine with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		s.metrics.ObserveTransition("invalid", string(pkgerrors.CodeValidation))
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	result, err := s.transition(ctx, input, target)
	if err != nil {
		s.metrics.ObserveTransition(target.String(), string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	outcome := "noop"
	if result.Changed {
		outcome = "applied"
	}
	s.metrics.ObserveTransition(target.String(), outcome)
	return result, nil
}

func (s *service) transition(ctx context.Context, input TransitionInput, target enums.OrderStatus) (*TransitionResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if err := requireActor(input.Actor); err != nil {
		return nil, err
	}
	if input.Actor.Role == enums.ActorRoleCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot change order status")
	}
	driverID, err := normalizeDriverID(input.DriverID)
	if err != nil {
		return nil, err
	}
	if driverID != nil {
		if input.Actor.Role != enums.ActorRoleVendor && input.Actor.Role != enums.ActorRoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only vendors and admins assign drivers")
		}
		if target != enums.OrderStatusOutForDelivery {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "driverId is only accepted with out_for_delivery")
		}
	}

	var result *TransitionResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if err := authorizeTransition(order, input.Actor, target); err != nil {
			return err
		}

		if order.Status == target {
			if driverID != nil && (order.DriverID == nil || *order.DriverID != *driverID) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has a different driver").
					WithDetails(map[string]any{"status": order.Status})
			}
			result = &TransitionResult{OrderID: order.ID, Status: order.Status, Changed: false}
			return nil
		}
		if !canTransitionOrder(order.Status, target, order.FulfillmentType) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "transition not allowed").
				WithDetails(map[string]any{
					"from":    order.Status,
					"to":      target,
					"allowed": NextStatuses(order.Status, order.FulfillmentType),
				})
		}

		now := s.now()
		from := order.Status
		update := StatusUpdate{
			OrderID:    order.ID,
			VendorID:   order.VendorID,
			CustomerID: order.CustomerID,
			From:       from,
			To:         target,
			DriverID:   driverID,
			At:         now,
		}
		if err := repo.ApplyStatus(ctx, update); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status changed").
					WithDetails(map[string]any{"expected": from})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply status")
		}

		effectiveDriver := order.DriverID
		if driverID != nil {
			effectiveDriver = driverID
		}
		if err := repo.InsertStatusEvent(ctx, &models.OrderStatusEvent{
			ID:         uuid.New(),
			OrderID:    order.ID,
			FromStatus: &from,
			ToStatus:   target,
			ActorID:    input.Actor.UID,
			ActorRole:  input.Actor.Role,
			DriverID:   driverID,
			OccurredAt: now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record status history")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UID, Role: input.Actor.Role.String()},
			OccurredAt:    now,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:    order.ID,
				OrderCode:  order.OrderCode,
				CustomerID: order.CustomerID,
				VendorID:   order.VendorID,
				DriverID:   effectiveDriver,
				FromStatus: from,
				ToStatus:   target,
				ChangedAt:  now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status event")
		}

		result = &TransitionResult{OrderID: order.ID, Status: target, Changed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil && result.Changed {
		logCtx := s.logg.WithOrderID(ctx, result.OrderID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"status":     result.Status,
			"actor_id":   input.Actor.UID,
			"actor_role": input.Actor.Role,
		})
		s.logg.Info(logCtx, "order status changed")
	}
	return result, nil
}

// authorizeTransition enforces who may move this order. Customers were
// rejected before the order was loaded.
func authorizeTransition(order *models.Order, actor auth.Identity, target enums.OrderStatus) error {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return nil
	case enums.ActorRoleVendor:
		if order.VendorID != actor.UID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
		return nil
	case enums.ActorRoleDriver:
		if order.DriverID == nil || *order.DriverID != actor.UID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this driver")
		}
		if !IsDriverReachable(target) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "drivers cannot set this status")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot change order status")
	}
}

func requireActor(actor auth.Identity) error {
	if strings.TrimSpace(actor.UID) == "" || !actor.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return nil
}

func normalizeDriverID(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driverId must not be blank")
	}
	return &trimmed, nil
}

func (s *service) GetOrder(ctx context.Context, actor auth.Identity, orderID uuid.UUID) (*OrderDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !canView(order, actor) {
		// other parties' orders are indistinguishable from missing ones
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	history, err := s.repo.ListStatusEvents(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	detail := toDetail(*order, history)
	return &detail, nil
}

func canView(order *models.Order, actor auth.Identity) bool {
	switch actor.Role {
	case enums.ActorRoleAdmin:
		return true
	case enums.ActorRoleVendor:
		return order.VendorID == actor.UID
	case enums.ActorRoleCustomer:
		return order.CustomerID == actor.UID
	case enums.ActorRoleDriver:
		return order.DriverID != nil && *order.DriverID == actor.UID
	default:
		return false
	}
}

func (s *service) ListVendorOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	query, limit, err := buildMirrorQuery(params, enums.ActorRoleVendor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListVendorMirrors(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	summaries := make([]OrderSummary, len(rows))
	for i, row := range rows {
		summaries[i] = toSummary(row.MirrorSummary)
		summaries[i].CustomerName = row.CustomerName
	}
	return paginate(summaries, limit), nil
}

func (s *service) ListCustomerOrders(ctx context.Context, params ListParams) (*ListResult, error) {
	query, limit, err := buildMirrorQuery(params, enums.ActorRoleCustomer)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListCustomerMirrors(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	summaries := make([]OrderSummary, len(rows))
	for i, row := range rows {
		summaries[i] = toSummary(row.MirrorSummary)
		summaries[i].VendorName = row.VendorName
	}
	return paginate(summaries, limit), nil
}

// buildMirrorQuery scopes a listing to the caller's own namespace. Admins must
// name the party they want to inspect.
func buildMirrorQuery(params ListParams, owner enums.ActorRole) (mirrorQuery, int, error) {
	if err := requireActor(params.Actor); err != nil {
		return mirrorQuery{}, 0, err
	}
	query := mirrorQuery{limit: pkgpagination.LimitWithBuffer(params.Limit)}
	switch params.Actor.Role {
	case owner:
		query.partyID = params.Actor.UID
	case enums.ActorRoleAdmin:
		query.partyID = strings.TrimSpace(params.PartyID)
		if query.partyID == "" {
			return mirrorQuery{}, 0, pkgerrors.New(pkgerrors.CodeValidation, "party id required for admin listings")
		}
	default:
		return mirrorQuery{}, 0, pkgerrors.New(pkgerrors.CodeForbidden, "listing not available for role")
	}

	if raw := strings.TrimSpace(params.Status); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return mirrorQuery{}, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.status = &status
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return mirrorQuery{}, 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}
	return query, pkgpagination.NormalizeLimit(params.Limit), nil
}

func paginate(rows []OrderSummary, limit int) *ListResult {
	result := &ListResult{Orders: rows}
	if len(rows) > limit {
		last := rows[limit-1]
		result.NextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.OrderID,
		})
		result.Orders = rows[:limit]
	}
	return result
}
