package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is empty because every field carries a fully-qualified env tag.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "KOLAMART_DB_DSN"
	EnvDBHost = "KOLAMART_DB_HOST"
	EnvDBUser = "KOLAMART_DB_USER"
	EnvDBName = "KOLAMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Wallet  WalletConfig
	Loyalty LoyaltyConfig
	Listing ListingConfig
	Handoff HandoffConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Loyalty.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KOLAMART_APP_ENV" required:"true"`
	Port         string `envconfig:"KOLAMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KOLAMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KOLAMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KOLAMART_DB_DSN"`
	Driver string `envconfig:"KOLAMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"KOLAMART_DB_HOST"`
	LegacyPort     int    `envconfig:"KOLAMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KOLAMART_DB_USER"`
	LegacyPassword string `envconfig:"KOLAMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"KOLAMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"KOLAMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KOLAMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KOLAMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KOLAMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KOLAMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"KOLAMART_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KOLAMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KOLAMART_REDIS_ADDR"`
	Password     string        `envconfig:"KOLAMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"KOLAMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KOLAMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KOLAMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KOLAMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KOLAMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KOLAMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// WalletConfig gates wallet access. PIN attempts are counted in a fixed redis
// window; the counter clears on a successful unlock.
type WalletConfig struct {
	PinAttemptWindow time.Duration `envconfig:"KOLAMART_WALLET_PIN_ATTEMPT_WINDOW" default:"15m"`
	PinAttemptLimit  int           `envconfig:"KOLAMART_WALLET_PIN_ATTEMPT_LIMIT" default:"5"`

	ArgonMemoryKB    int `envconfig:"KOLAMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KOLAMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KOLAMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KOLAMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KOLAMART_ARGON_KEY_LEN" default:"32"`
}

// LoyaltyConfig externalizes the coin policy knobs. The redemption cap applies
// to shopper-facing discounts; the earn band bounds the vendor-configurable
// award percentage.
type LoyaltyConfig struct {
	RedemptionCapPercent int `envconfig:"KOLAMART_LOYALTY_REDEMPTION_CAP_PERCENT" default:"5"`
	EarnMinPercent       int `envconfig:"KOLAMART_LOYALTY_EARN_MIN_PERCENT" default:"1"`
	EarnMaxPercent       int `envconfig:"KOLAMART_LOYALTY_EARN_MAX_PERCENT" default:"15"`
}

func (l LoyaltyConfig) validate() error {
	if l.RedemptionCapPercent < 0 || l.RedemptionCapPercent > 100 {
		return fmt.Errorf("redemption cap percent must be within 0..100, got %d", l.RedemptionCapPercent)
	}
	if l.EarnMinPercent < 0 || l.EarnMaxPercent > 100 || l.EarnMinPercent > l.EarnMaxPercent {
		return fmt.Errorf("earn percent band %d..%d is invalid", l.EarnMinPercent, l.EarnMaxPercent)
	}
	return nil
}

// ListingConfig bounds vendor contributions to aggregated marketplace views.
type ListingConfig struct {
	FreeTierProductCap int `envconfig:"KOLAMART_LISTING_FREE_TIER_PRODUCT_CAP" default:"5"`
}

// HandoffConfig controls how vendor contact handles become messaging targets.
type HandoffConfig struct {
	CountryCode string `envconfig:"KOLAMART_HANDOFF_COUNTRY_CODE" default:"234"`
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
