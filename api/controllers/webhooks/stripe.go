package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/orderflow/api/responses"
	pkgerrors "github.com/angelmondragon/orderflow/pkg/errors"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/metrics"
)

// maxPayloadBytes matches the limit Stripe documents for event payloads.
const maxPayloadBytes = int64(65536)

type PaymentWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (string, error)
}

type paymentWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type signingClient interface {
	SigningSecret() string
}

type webhookAck struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// PaymentWebhook verifies and dispatches payment processor events. Any non-2xx
// answer makes the processor redeliver.
func PaymentWebhook(svc PaymentWebhookService, client signingClient, guard paymentWebhookGuard, m *metrics.OrderMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payload too large"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		secret := ""
		if client != nil {
			secret = client.SigningSecret()
		}
		if secret == "" {
			m.ObserveWebhook(metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "webhook secret not configured"))
			return
		}
		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			m.ObserveWebhook(metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeSignature, "stripe signature missing"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			m.ObserveWebhook(metrics.WebhookRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeSignature, err, "verify signature"))
			return
		}

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"stripe_event_id":   event.ID,
				"stripe_event_type": string(event.Type),
			})
		}

		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeMaterialization, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				m.ObserveWebhook(metrics.WebhookDuplicate)
				responses.WriteSuccess(w, webhookAck{Received: true, Outcome: metrics.WebhookDuplicate})
				return
			}
		}

		outcome, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			if guard != nil {
				if releaseErr := guard.Release(ctx, event.ID); releaseErr != nil && logg != nil {
					logg.Error(ctx, "release webhook idempotency key", releaseErr)
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", outcome), "payment event processed")
		}
		responses.WriteSuccess(w, webhookAck{Received: true, Outcome: outcome})
	}
}
