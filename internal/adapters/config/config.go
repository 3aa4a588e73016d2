package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config represents application configuration
type Config struct {
	Engine     EngineConfig     `envconfig:"ENGINE"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Health     HealthConfig     `envconfig:"HEALTH"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// Price sources the engine can read closes from
const (
	PriceSourcePostgres   = "postgres"
	PriceSourceClickHouse = "clickhouse"
)

// EngineConfig represents index computation parameters
type EngineConfig struct {
	DaysBack       int                `envconfig:"ENGINE_DAYS_BACK" default:"730"`
	Interval       time.Duration      `envconfig:"ENGINE_INTERVAL" default:"24h"`
	Schedule       string             `envconfig:"ENGINE_SCHEDULE"`
	RunOnStart     bool               `envconfig:"ENGINE_RUN_ON_START" default:"true"`
	Concurrency    int                `envconfig:"ENGINE_CONCURRENCY" default:"4"`
	SectorWeights  map[string]float64 `envconfig:"ENGINE_SECTOR_WEIGHTS" default:"Information Technology:0.30,Health Care:0.12,Financials:0.11,Consumer Discretionary:0.11,Communication Services:0.09,Industrials:0.08,Consumer Staples:0.06,Energy:0.05,Utilities:0.03,Real Estate:0.02,Materials:0.03"`
	PriceSource    string             `envconfig:"ENGINE_PRICE_SOURCE" default:"postgres"`
	OutputDir      string             `envconfig:"ENGINE_OUTPUT_DIR" default:"SectorLogs"`
	MarketFile     string             `envconfig:"ENGINE_MARKET_FILE" default:"MarketSentiment.csv"`
	CacheTTL       time.Duration      `envconfig:"ENGINE_CACHE_TTL" default:"26h"`
	LockTTL        time.Duration      `envconfig:"ENGINE_LOCK_TTL" default:"30m"`
	MigrationsPath string             `envconfig:"ENGINE_MIGRATIONS_PATH" default:"migrations"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host         string        `envconfig:"DB_HOST" default:"localhost"`
	Port         int           `envconfig:"DB_PORT" default:"5432"`
	Name         string        `envconfig:"DB_NAME" default:"sentiment"`
	User         string        `envconfig:"DB_USER" required:"true"`
	Password     string        `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode      string        `envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnLifetime time.Duration `envconfig:"DB_CONN_LIFETIME" default:"5m"`
}

// ClickHouseConfig represents the analytical store used for price history and index archives
type ClickHouseConfig struct {
	Enabled  bool          `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string        `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int           `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string        `envconfig:"CLICKHOUSE_DATABASE" default:"sentiment"`
	User     string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string        `envconfig:"CLICKHOUSE_PASSWORD"`
	BatchMax int           `envconfig:"CLICKHOUSE_BATCH_MAX" default:"1000"`
	BatchAge time.Duration `envconfig:"CLICKHOUSE_BATCH_AGE" default:"5s"`
}

// RedisConfig represents Redis connection parameters
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TelegramConfig represents Telegram notification configuration
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// HealthConfig represents health server configuration
type HealthConfig struct {
	Port int `envconfig:"HEALTH_PORT" default:"8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:"logs/sentiment.log"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	// Process environment variables
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Engine.DaysBack < 1 {
		return fmt.Errorf("days_back must be at least 1")
	}
	if c.Engine.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Engine.Schedule != "" {
		if _, err := cron.ParseStandard(c.Engine.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Engine.Schedule, err)
		}
	}
	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if len(c.Engine.SectorWeights) == 0 {
		return fmt.Errorf("at least one sector weight is required")
	}
	for sector, w := range c.Engine.SectorWeights {
		if w < 0 {
			return fmt.Errorf("sector weight for %q must not be negative", sector)
		}
	}

	switch c.Engine.PriceSource {
	case PriceSourcePostgres:
	case PriceSourceClickHouse:
		if !c.ClickHouse.Enabled {
			return fmt.Errorf("price source %q requires clickhouse to be enabled", c.Engine.PriceSource)
		}
	default:
		return fmt.Errorf("unknown price source %q", c.Engine.PriceSource)
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram chat_id is required")
		}
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse native-protocol connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Addr returns Redis host:port
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Window returns the [start, end] range covered by a run ending on today
func (c *EngineConfig) Window(today time.Time) (time.Time, time.Time) {
	return today.AddDate(0, 0, -(c.DaysBack - 1)), today
}
