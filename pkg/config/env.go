package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "ORDERFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv        = "ORDERFLOW_APP_ENV"
	EnvPort          = "ORDERFLOW_APP_PORT"
	EnvDBDSN         = "ORDERFLOW_DB_DSN"
	EnvDBHost        = "ORDERFLOW_DB_HOST"
	EnvDBUser        = "ORDERFLOW_DB_USER"
	EnvDBPassword    = "ORDERFLOW_DB_PASSWORD"
	EnvDBName        = "ORDERFLOW_DB_NAME"
	EnvUseSQLite     = "ORDERFLOW_USE_SQLITE"
	EnvRedisURL      = "ORDERFLOW_REDIS_URL"
	EnvJWTSecret     = "ORDERFLOW_JWT_SECRET"
	EnvJWTIssuer     = "ORDERFLOW_JWT_ISSUER"
	EnvStripeSecret  = "ORDERFLOW_STRIPE_WEBHOOK_SECRET"
	EnvTrackingLimit = "ORDERFLOW_TRACKING_RATE_LIMIT_IP_LIMIT"
	EnvOrdersTopic   = "ORDERFLOW_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
