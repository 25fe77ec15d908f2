package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "KAMPYN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	Backend      BackendConfig
	Payment      PaymentConfig
	Sync         SyncConfig
	Session      SessionConfig
	DB           DBConfig
	Redis        RedisConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAMPYN_APP_ENV" required:"true"`
	Port         string `envconfig:"KAMPYN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"KAMPYN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAMPYN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"KAMPYN_SERVICE_KIND" default:"gateway"`
}

// BackendConfig addresses the authoritative platform backend.
type BackendConfig struct {
	URL            string        `envconfig:"KAMPYN_BACKEND_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"KAMPYN_BACKEND_REQUEST_TIMEOUT" default:"15s"`
	ReadRetries    int           `envconfig:"KAMPYN_BACKEND_READ_RETRIES" default:"3"`
	ReadRetryBase  time.Duration `envconfig:"KAMPYN_BACKEND_READ_RETRY_BASE" default:"200ms"`
}

func (b BackendConfig) validate() error {
	parsed, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("parsing backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend url must be http(s), got %q", b.URL)
	}
	return nil
}

type PaymentConfig struct {
	Currency   string        `envconfig:"KAMPYN_PAYMENT_CURRENCY" default:"INR"`
	SessionTTL time.Duration `envconfig:"KAMPYN_PAYMENT_SESSION_TTL" default:"15m"`
}

// SyncConfig drives the vendor order mirror polling cadence.
type SyncConfig struct {
	ActiveInterval  time.Duration `envconfig:"KAMPYN_SYNC_ACTIVE_INTERVAL" default:"30s"`
	HistoryInterval time.Duration `envconfig:"KAMPYN_SYNC_HISTORY_INTERVAL" default:"60s"`
	VendorIDs       []string      `envconfig:"KAMPYN_SYNC_VENDOR_IDS"`
}

type SessionConfig struct {
	TTL            time.Duration `envconfig:"KAMPYN_SESSION_TTL" default:"720h"`
	RefreshLeeway  time.Duration `envconfig:"KAMPYN_SESSION_REFRESH_LEEWAY" default:"2m"`
	RedisBacked    bool          `envconfig:"KAMPYN_SESSION_REDIS" default:"false"`
	PreferenceKeys []string      `envconfig:"KAMPYN_SESSION_PREFERENCE_KEYS" default:"theme,lastVendor"`
}

type DBConfig struct {
	DSN             string        `envconfig:"KAMPYN_DB_DSN"`
	MaxOpenConns    int           `envconfig:"KAMPYN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KAMPYN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KAMPYN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KAMPYN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KAMPYN_REDIS_URL"`
	Address      string        `envconfig:"KAMPYN_REDIS_ADDR"`
	Password     string        `envconfig:"KAMPYN_REDIS_PASSWORD"`
	DB           int           `envconfig:"KAMPYN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KAMPYN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KAMPYN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KAMPYN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAMPYN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAMPYN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	Origins []string `envconfig:"KAMPYN_CORS_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"KAMPYN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"KAMPYN_AUTO_MIGRATE" default:"false"`
	Journal     bool `envconfig:"KAMPYN_FEATURE_JOURNAL" default:"true"`
}
