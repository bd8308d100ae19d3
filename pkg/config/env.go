package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv     = "STOREFRONT_APP_ENV"
	EnvPort       = "STOREFRONT_APP_PORT"
	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvRedisURL   = "STOREFRONT_REDIS_URL"
	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvUseSQLite  = "STOREFRONT_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
