package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Tracking     TrackingConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Stripe       StripeConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERFLOW_APP_PORT" default:"8080"`
	MetricsPort  string `envconfig:"ORDERFLOW_METRICS_PORT" default:"9090"`
	LogLevel     string `envconfig:"ORDERFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"ORDERFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERFLOW_DB_DSN"`
	Driver string `envconfig:"ORDERFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERFLOW_DB_USER"`
	LegacyPassword string `envconfig:"ORDERFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ORDERFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"ORDERFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORDERFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ORDERFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ORDERFLOW_AUTO_MIGRATE" default:"false"`
}

// TrackingConfig governs the public tracking endpoint.
type TrackingConfig struct {
	RateLimitWindow time.Duration `envconfig:"ORDERFLOW_TRACKING_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerIP  int           `envconfig:"ORDERFLOW_TRACKING_RATE_LIMIT_IP_LIMIT" default:"60"`
	AllowedOrigins  []string      `envconfig:"ORDERFLOW_TRACKING_ALLOWED_ORIGINS" default:"*"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL  time.Duration `envconfig:"ORDERFLOW_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookIdempotencyTTL time.Duration `envconfig:"ORDERFLOW_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ORDERFLOW_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ORDERFLOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ORDERFLOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"ORDERFLOW_PUBSUB_ORDERS_TOPIC" default:"orderflow-order-events"`
	OrdersDLQTopic        string `envconfig:"ORDERFLOW_PUBSUB_ORDERS_DLQ_TOPIC"`
	AnalyticsSubscription string `envconfig:"ORDERFLOW_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"orderflow-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset           string `envconfig:"ORDERFLOW_BIGQUERY_DATASET" default:"orderflow"`
	OrderEventsTable  string `envconfig:"ORDERFLOW_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
	InsertTimeoutSecs int    `envconfig:"ORDERFLOW_BIGQUERY_INSERT_TIMEOUT_SECONDS" default:"10"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDERFLOW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDERFLOW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDERFLOW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type StripeConfig struct {
	APIKey        string `envconfig:"ORDERFLOW_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"ORDERFLOW_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"ORDERFLOW_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:orderflow.db?cache=shared&_foreign_keys=on"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
