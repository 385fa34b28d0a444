package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSessionIDMissing = errors.New("checkout session id is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Client wraps Stripe's API client plus env-specific metadata.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

// NewClient initializes Stripe with the configured secrets and env. The API key
// is only needed for session retrieval and the signing secret only for webhook
// verification; a missing secret makes every webhook fail verification.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	client := &Client{
		environment:   env,
		signingSecret: strings.TrimSpace(cfg.WebhookSecret),
	}

	if apiKey := strings.TrimSpace(cfg.APIKey); apiKey != "" {
		if err := validateAPIKey(env, apiKey); err != nil {
			return nil, err
		}
		client.api = stripe.NewClient(apiKey)
	}

	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"stripe_env":        env,
			"api_configured":    client.api != nil,
			"secret_configured": client.signingSecret != "",
		})
		logg.Info(logCtx, "stripe client initialized")
		if client.signingSecret == "" {
			logg.Warn(logCtx, "stripe webhook secret not configured; payment webhooks will be rejected")
		}
	}

	return client, nil
}

// Environment reports the normalized Stripe environment in use.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook signing secret.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// RetrieveCheckoutSession loads a checkout session by id, including its metadata.
func (c *Client) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if c == nil || c.api == nil {
		return nil, errAPIKeyRequired
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errSessionIDMissing
	}
	return c.api.V1CheckoutSessions.Retrieve(ctx, sessionID, &stripe.CheckoutSessionRetrieveParams{})
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
