package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderflow/api/controllers"
	ordercontrollers "github.com/angelmondragon/orderflow/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/orderflow/api/controllers/webhooks"
	"github.com/angelmondragon/orderflow/api/middleware"
	"github.com/angelmondragon/orderflow/internal/orders"
	stripewebhook "github.com/angelmondragon/orderflow/internal/webhooks/stripe"
	"github.com/angelmondragon/orderflow/pkg/config"
	"github.com/angelmondragon/orderflow/pkg/enums"
	"github.com/angelmondragon/orderflow/pkg/logger"
	"github.com/angelmondragon/orderflow/pkg/metrics"
	pkgredis "github.com/angelmondragon/orderflow/pkg/redis"
	"github.com/angelmondragon/orderflow/pkg/stripe"
)

// RedisStore is the subset of the redis client the HTTP layer relies on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient RedisStore,
	bigqueryClient controllers.Pinger,
	ordersSvc orders.Service,
	stripeClient *stripe.Client,
	stripeWebhookService webhookcontrollers.PaymentWebhookService,
	stripeWebhookGuard *stripewebhook.IdempotencyGuard,
	orderMetrics *metrics.OrderMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	readiness := map[string]controllers.Pinger{"db": dbP}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}
	if bigqueryClient != nil {
		readiness["bigquery"] = bigqueryClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	paymentWebhook := newPaymentWebhook(stripeWebhookService, stripeClient, stripeWebhookGuard, orderMetrics, logg)
	r.Post("/webhooks/payment", paymentWebhook)
	r.Post("/api/v1/webhooks/stripe", paymentWebhook)

	trackingPolicy := middleware.NewRateLimitPolicy(
		"tracking",
		cfg.Tracking.RateLimitWindow,
		cfg.Tracking.RateLimitPerIP,
	)
	r.Route("/track", func(r chi.Router) {
		r.Use(middleware.PublicCORS(cfg.Tracking.AllowedOrigins))
		if redisClient != nil {
			r.Use(middleware.RateLimit(trackingPolicy, redisClient, logg))
		}
		r.Get("/", controllers.Track(ordersSvc, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/v1/orders/{orderId}", func(r chi.Router) {
			r.Get("/", ordercontrollers.Detail(ordersSvc, logg))
			r.Post("/status", ordercontrollers.TransitionStatus(ordersSvc, logg))
		})

		r.Route("/v1/vendor/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleVendor, enums.ActorRoleAdmin))
			r.Get("/", ordercontrollers.VendorList(ordersSvc, logg))
		})

		r.Route("/v1/customer/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleCustomer, enums.ActorRoleAdmin))
			r.Get("/", ordercontrollers.CustomerList(ordersSvc, logg))
		})
	})

	return r
}

// newPaymentWebhook keeps typed nil pointers from reaching the handler as non-nil interfaces.
func newPaymentWebhook(
	svc webhookcontrollers.PaymentWebhookService,
	client *stripe.Client,
	guard *stripewebhook.IdempotencyGuard,
	m *metrics.OrderMetrics,
	logg *logger.Logger,
) http.HandlerFunc {
	if guard == nil {
		return webhookcontrollers.PaymentWebhook(svc, client, nil, m, logg)
	}
	return webhookcontrollers.PaymentWebhook(svc, client, guard, m, logg)
}
