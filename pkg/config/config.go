package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

const (
	EnvPrefix = "MEALBRIDGE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "MEALBRIDGE_APP_ENV"
	EnvPort     = "MEALBRIDGE_APP_PORT"
	EnvDBDSN    = "MEALBRIDGE_DB_DSN"
	EnvDBHost   = "MEALBRIDGE_DB_HOST"
	EnvDBUser   = "MEALBRIDGE_DB_USER"
	EnvDBName   = "MEALBRIDGE_DB_NAME"
	EnvRedisURL = "MEALBRIDGE_REDIS_URL"

	EnvGCPProjectID     = "MEALBRIDGE_GCP_PROJECT_ID"
	EnvPubSubEventTopic = "MEALBRIDGE_PUBSUB_EVENT_TOPIC"
	EnvPubSubEventSub   = "MEALBRIDGE_PUBSUB_EVENT_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Safety       SafetyConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MEALBRIDGE_APP_ENV" required:"true"`
	Port         string `envconfig:"MEALBRIDGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MEALBRIDGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MEALBRIDGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MEALBRIDGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MEALBRIDGE_DB_DSN"`
	Driver string `envconfig:"MEALBRIDGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MEALBRIDGE_DB_HOST"`
	LegacyPort     int    `envconfig:"MEALBRIDGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MEALBRIDGE_DB_USER"`
	LegacyPassword string `envconfig:"MEALBRIDGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MEALBRIDGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MEALBRIDGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MEALBRIDGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MEALBRIDGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MEALBRIDGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MEALBRIDGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MEALBRIDGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MEALBRIDGE_REDIS_ADDR"`
	Password     string        `envconfig:"MEALBRIDGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MEALBRIDGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MEALBRIDGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MEALBRIDGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MEALBRIDGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MEALBRIDGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MEALBRIDGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MEALBRIDGE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"MEALBRIDGE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MEALBRIDGE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MEALBRIDGE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MEALBRIDGE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventTopic        string `envconfig:"MEALBRIDGE_PUBSUB_EVENT_TOPIC" required:"true"`
	EventSubscription string `envconfig:"MEALBRIDGE_PUBSUB_EVENT_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MEALBRIDGE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MEALBRIDGE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MEALBRIDGE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"MEALBRIDGE_OUTBOX_RETENTION_DAYS" default:"14"`
}

type RateLimitConfig struct {
	Requests int64         `envconfig:"MEALBRIDGE_RATE_LIMIT_REQUESTS" default:"120"`
	Window   time.Duration `envconfig:"MEALBRIDGE_RATE_LIMIT_WINDOW" default:"1m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MEALBRIDGE_CRON_INTERVAL" default:"10m"`
	LockTTL  time.Duration `envconfig:"MEALBRIDGE_CRON_LOCK_TTL" default:"15m"`
}

// SafetyConfig holds the food-safety windows derived from freshness levels
// plus the pickup-window and pickup-code settings. The freshness table is
// deliberately configuration, not code.
type SafetyConfig struct {
	WindowFreshlyCooked  time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_FRESHLY_COOKED" default:"4h"`
	WindowFresh          time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_FRESH" default:"8h"`
	WindowGood           time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_GOOD" default:"12h"`
	WindowNearExpiry     time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_NEAR_EXPIRY" default:"2h"`
	WindowUseImmediately time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_USE_IMMEDIATELY" default:"1h"`
	WindowDefault        time.Duration `envconfig:"MEALBRIDGE_SAFETY_WINDOW_DEFAULT" default:"6h"`

	PickupWindow    time.Duration `envconfig:"MEALBRIDGE_SAFETY_PICKUP_WINDOW" default:"12h"`
	UrgentThreshold time.Duration `envconfig:"MEALBRIDGE_SAFETY_URGENT_THRESHOLD" default:"2h"`
	HighThreshold   time.Duration `envconfig:"MEALBRIDGE_SAFETY_HIGH_THRESHOLD" default:"4h"`

	PickupCodeDigits int `envconfig:"MEALBRIDGE_SAFETY_PICKUP_CODE_DIGITS" default:"6"`
}

// WindowFor maps a freshness level to its safety-window duration.
func (s SafetyConfig) WindowFor(level enums.FreshnessLevel) time.Duration {
	switch level {
	case enums.FreshnessFreshlyCooked:
		return s.WindowFreshlyCooked
	case enums.FreshnessFresh:
		return s.WindowFresh
	case enums.FreshnessGood:
		return s.WindowGood
	case enums.FreshnessNearExpiry:
		return s.WindowNearExpiry
	case enums.FreshnessUseImmediately:
		return s.WindowUseImmediately
	default:
		return s.WindowDefault
	}
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
