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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = "file:storefront.db?cache=shared"
		}
		cfg.DB.Driver = DriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for bearer tokens minted by the
// identity provider. Token issuance itself lives outside this service.
type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
	// Zero disables the per-user limit.
	RateLimitPerMinute int `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_PER_MINUTE" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic  string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
	ReviewsTopic string `envconfig:"STOREFRONT_PUBSUB_REVIEWS_TOPIC" default:"storefront-review-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"STOREFRONT_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	// Pending bank transfer orders older than this are cancelled and restocked.
	UnpaidOrderTTL time.Duration `envconfig:"STOREFRONT_CRON_UNPAID_ORDER_TTL" default:"168h"`
	BatchSize      int           `envconfig:"STOREFRONT_CRON_BATCH_SIZE" default:"100"`
}

func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
