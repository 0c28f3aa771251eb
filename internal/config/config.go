package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "PETSHOP"

type Config struct {
	Env      string `envconfig:"ENV" default:"dev"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// LogFormat is "json" or "console".
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogFile   string `envconfig:"LOG_FILE"`

	DBDSN          string `envconfig:"DB_DSN" default:"petshop.db"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"1"`

	TaxRate       float64 `envconfig:"TAX_RATE" default:"0.10"`
	SnowflakeNode int64   `envconfig:"SNOWFLAKE_NODE" default:"1"`

	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	LoginLimitMax   int           `envconfig:"LOGIN_LIMIT_MAX" default:"5"`
	RedisURL        string        `envconfig:"REDIS_URL"`

	CSRFEnabled    bool `envconfig:"CSRF_ENABLED" default:"true"`
	CookieSecure   bool `envconfig:"COOKIE_SECURE" default:"false"`
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	TemplateReload bool `envconfig:"TEMPLATE_RELOAD" default:"false"`
	SeedOnStart    bool `envconfig:"SEED_ON_START" default:"true"`
}

// Load reads an optional .env file and then the PETSHOP_* environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") }

func (c Config) validate() error {
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("tax rate must be within [0,1], got %v", c.TaxRate)
	}
	if c.SnowflakeNode < 0 || c.SnowflakeNode > 1023 {
		return fmt.Errorf("snowflake node must be within [0,1023], got %d", c.SnowflakeNode)
	}
	if c.DBMaxOpenConns < 1 {
		return errors.New("db max open conns must be positive")
	}
	return nil
}
