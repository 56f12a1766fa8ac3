// Package config loads service settings from a YAML file, an optional .env
// file and PRINTSHOP_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/printshop-service/pkg/pricing"
)

// Config holds every setting the binary reads at startup.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Portal    PortalConfig    `yaml:"portal"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Invoice   InvoiceConfig   `yaml:"invoice"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"PRINTSHOP_HTTP_ADDR"`
	ReadTimeout     time.Duration `yaml:"readTimeout" env:"PRINTSHOP_HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" env:"PRINTSHOP_HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"PRINTSHOP_HTTP_SHUTDOWN_TIMEOUT"`
	CORSOrigins     []string      `yaml:"corsOrigins" env:"PRINTSHOP_HTTP_CORS_ORIGINS"`
}

type DatabaseConfig struct {
	// DSN selects the Postgres store. "memory" runs on the in-process store.
	DSN          string `yaml:"dsn" env:"PRINTSHOP_DATABASE_DSN"`
	MaxOpenConns int    `yaml:"maxOpenConns" env:"PRINTSHOP_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `yaml:"maxIdleConns" env:"PRINTSHOP_DATABASE_MAX_IDLE_CONNS"`
}

// InMemory reports whether the in-process store was requested.
func (d DatabaseConfig) InMemory() bool {
	return strings.EqualFold(strings.TrimSpace(d.DSN), "memory")
}

type LogConfig struct {
	Level       string `yaml:"level" env:"PRINTSHOP_LOG_LEVEL"`
	Development bool   `yaml:"development" env:"PRINTSHOP_LOG_DEVELOPMENT"`
}

type PortalConfig struct {
	JWTSecret     string        `yaml:"jwtSecret" env:"PRINTSHOP_PORTAL_JWT_SECRET"`
	TokenTTL      time.Duration `yaml:"tokenTTL" env:"PRINTSHOP_PORTAL_TOKEN_TTL"`
	RatePerSecond float64       `yaml:"ratePerSecond" env:"PRINTSHOP_PORTAL_RATE_PER_SECOND"`
	Burst         int           `yaml:"burst" env:"PRINTSHOP_PORTAL_BURST"`
}

// StorageConfig points at the S3 bucket used to archive PDFs. An empty
// bucket disables archiving.
type StorageConfig struct {
	Region   string `yaml:"region" env:"PRINTSHOP_STORAGE_REGION"`
	Bucket   string `yaml:"bucket" env:"PRINTSHOP_STORAGE_BUCKET"`
	Prefix   string `yaml:"prefix" env:"PRINTSHOP_STORAGE_PREFIX"`
	Endpoint string `yaml:"endpoint" env:"PRINTSHOP_STORAGE_ENDPOINT"`
}

func (s StorageConfig) Enabled() bool { return s.Bucket != "" }

// CacheConfig points at Redis. An empty address selects the in-process cache.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redisAddr" env:"PRINTSHOP_CACHE_REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword" env:"PRINTSHOP_CACHE_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redisDB" env:"PRINTSHOP_CACHE_REDIS_DB"`
	TTL           time.Duration `yaml:"ttl" env:"PRINTSHOP_CACHE_TTL"`
}

type SchedulerConfig struct {
	Enabled          bool   `yaml:"enabled" env:"PRINTSHOP_SCHEDULER_ENABLED"`
	OverdueSpec      string `yaml:"overdueSpec" env:"PRINTSHOP_SCHEDULER_OVERDUE_SPEC"`
	QuoteExpirySpec  string `yaml:"quoteExpirySpec" env:"PRINTSHOP_SCHEDULER_QUOTE_EXPIRY_SPEC"`
	LimiterSweepSpec string `yaml:"limiterSweepSpec" env:"PRINTSHOP_SCHEDULER_LIMITER_SWEEP_SPEC"`
}

// InvoiceConfig carries document defaults and the letterhead printed on PDFs.
type InvoiceConfig struct {
	DefaultCurrency  string  `yaml:"defaultCurrency" env:"PRINTSHOP_INVOICE_DEFAULT_CURRENCY"`
	DefaultTaxRate   float64 `yaml:"defaultTaxRate" env:"PRINTSHOP_INVOICE_DEFAULT_TAX_RATE"`
	PaymentTermsDays int     `yaml:"paymentTermsDays" env:"PRINTSHOP_INVOICE_PAYMENT_TERMS_DAYS"`
	QuoteValidDays   int     `yaml:"quoteValidDays" env:"PRINTSHOP_INVOICE_QUOTE_VALID_DAYS"`
	CompanyName      string  `yaml:"companyName" env:"PRINTSHOP_INVOICE_COMPANY_NAME"`
	CompanyAddress   string  `yaml:"companyAddress" env:"PRINTSHOP_INVOICE_COMPANY_ADDRESS"`
	BankAccount      string  `yaml:"bankAccount" env:"PRINTSHOP_INVOICE_BANK_ACCOUNT"`
}

// Default returns the settings used when neither file nor environment
// provide a value.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Log: LogConfig{Level: "info"},
		Portal: PortalConfig{
			TokenTTL:      12 * time.Hour,
			RatePerSecond: 5,
			Burst:         20,
		},
		Storage: StorageConfig{Region: "us-east-1", Prefix: "invoices/"},
		Cache:   CacheConfig{TTL: 5 * time.Minute},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			OverdueSpec:      "@hourly",
			QuoteExpirySpec:  "@daily",
			LimiterSweepSpec: "@every 10m",
		},
		Invoice: InvoiceConfig{
			DefaultCurrency:  "USD",
			PaymentTermsDays: 30,
			QuoteValidDays:   30,
			CompanyName:      "Print Shop",
		},
	}
}

// Load reads path (a missing file is allowed), then envFile, then the
// environment, and validates the result.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Database.DSN) == "" {
		problems = append(problems, "database.dsn is required")
	}
	if strings.TrimSpace(c.Portal.JWTSecret) == "" {
		problems = append(problems, "portal.jwtSecret is required")
	}
	if c.Portal.TokenTTL <= 0 {
		problems = append(problems, "portal.tokenTTL must be positive")
	}
	if c.Portal.RatePerSecond <= 0 || c.Portal.Burst <= 0 {
		problems = append(problems, "portal.ratePerSecond and portal.burst must be positive")
	}
	if err := pricing.ValidateTaxRate(decimal.NewFromFloat(c.Invoice.DefaultTaxRate)); err != nil {
		problems = append(problems, "invoice.defaultTaxRate "+strings.TrimPrefix(err.Error(), "taxRate: "))
	}
	if c.Invoice.PaymentTermsDays < 0 {
		problems = append(problems, "invoice.paymentTermsDays must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
