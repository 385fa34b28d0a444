package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/orderflow/internal/orders"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/metrics"
)

// SessionRetriever loads a checkout session when the event arrives without metadata.
type SessionRetriever interface {
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type ServiceParams struct {
	Orders   orders.Service
	Sessions SessionRetriever
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

// Service turns verified payment events into orders.
type Service struct {
	orders   orders.Service
	sessions SessionRetriever
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	return &Service{
		orders:   params.Orders,
		sessions: params.Sessions,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// HandleEvent materializes an order for a completed, paid checkout session
// and returns the outcome label. Other events are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (string, error) {
	outcome, err := s.handle(ctx, event)
	s.metrics.ObserveWebhook(outcome)
	return outcome, err
}

func (s *Service) handle(ctx context.Context, event *stripe.Event) (string, error) {
	if event == nil || event.Data == nil {
		return metrics.WebhookMalformed, pkgerrors.New(pkgerrors.CodeMaterialization, "event data missing")
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return metrics.WebhookIgnored, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return s.malformed(ctx, event, err)
	}
	if session.ID == "" {
		return s.malformed(ctx, event, malformed("session id missing"))
	}
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return metrics.WebhookIgnored, nil
	}

	if len(session.Metadata) == 0 {
		if s.sessions == nil {
			return s.malformed(ctx, event, malformed("metadata missing"))
		}
		fetched, err := s.sessions.RetrieveCheckoutSession(ctx, session.ID)
		if err != nil {
			return metrics.WebhookFailed, pkgerrors.Wrap(pkgerrors.CodeMaterialization, err, "retrieve checkout session")
		}
		session = *fetched
	}

	meta, err := parseMetadata(session.Metadata)
	if err != nil {
		return s.malformed(ctx, event, err)
	}
	if err := checkAmountTotal(&session, meta.Total); err != nil {
		return s.malformed(ctx, event, err)
	}

	result, err := s.orders.CreateFromPayment(ctx, createInput(&session, meta))
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return s.malformed(ctx, event, err)
		}
		return metrics.WebhookFailed, asMaterialization(err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, result.Order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"stripe_event_id":   event.ID,
			"stripe_session_id": session.ID,
			"created":           result.Created,
		})
		s.logg.Info(logCtx, "payment event materialized")
	}
	if !result.Created {
		return metrics.WebhookDuplicate, nil
	}
	return metrics.WebhookCreated, nil
}

// malformed logs metadata problems as non-retryable and surfaces them as a
// materialization failure. The metadata is never repaired.
func (s *Service) malformed(ctx context.Context, event *stripe.Event, cause error) (string, error) {
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"stripe_event_id": event.ID,
			"retryable":       false,
		})
		s.logg.Error(logCtx, "payment event metadata rejected", cause)
	}
	return metrics.WebhookMalformed, pkgerrors.Wrap(pkgerrors.CodeMaterialization, cause, "invalid payment metadata")
}

func asMaterialization(err error) error {
	var typed *pkgerrors.Error
	if errors.As(err, &typed) && typed.Code() == pkgerrors.CodeMaterialization {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeMaterialization, err, "materialize order")
}
