package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

const envDevelopment = "development"

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth  AuthConfig
	Store StoreConfig
	Mongo MongoConfig
	SQL   SQLConfig
	Redis RedisConfig
	AMQP  AMQPConfig
	Stock StockConfig
	HTTP  HTTPConfig
}

type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,   default=24h"`
	BcryptCost int           `env:"BCRYPT_COST, default=10"`
}

type StoreConfig struct {
	Driver  string        `env:"STORE_DRIVER,  default=mongo"`
	Timeout time.Duration `env:"STORE_TIMEOUT, default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sweetshop"`
}

type SQLConfig struct {
	MySQLDSN   string `env:"MYSQL_DSN"`
	SQLitePath string `env:"SQLITE_PATH, default=sweetshop.db"`
}

// RedisConfig enables the catalog cache and purchase replay guard when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	DB       int           `env:"REDIS_DB,          default=0"`
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL, default=30s"`
}

// AMQPConfig enables stock event publishing when URL is set.
type AMQPConfig struct {
	URL      string `env:"AMQP_URL"`
	Exchange string `env:"AMQP_EXCHANGE, default=sweetshop.stock"`
}

type StockConfig struct {
	LowStockThreshold int `env:"LOW_STOCK_THRESHOLD, default=5"`
	EventWorkers      int `env:"STOCK_EVENT_WORKERS, default=4"`
}

type HTTPConfig struct {
	AuthRateLimit float64  `env:"AUTH_RATE_LIMIT, default=10"`
	AuthRateBurst int      `env:"AUTH_RATE_BURST, default=20"`
	CORSOrigins   []string `env:"CORS_ORIGINS,    default=*"`
}

// Load reads an optional .env file, then configuration from environment
// variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == envDevelopment
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverMongo, DriverSQLite:
	case DriverMySQL:
		if c.SQL.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required when STORE_DRIVER=mysql"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required when ENV=%s", c.Env))
	}
	if c.Stock.LowStockThreshold < 0 {
		errs = append(errs, errors.New("LOW_STOCK_THRESHOLD must be non-negative"))
	}
	if c.HTTP.AuthRateLimit <= 0 || c.HTTP.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_BURST must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
