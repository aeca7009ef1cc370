package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	StorageDriver string

	// Ledger and vault behaviour
	SystemBaseCurrency    string
	FXCacheTTL            time.Duration
	RevaluationSchedule   string
	RevaluationWorkers    int
	LedgerPostRevaluation bool

	// HTTP surface
	RateLimit          string
	CORSAllowedOrigins []string
	MigrationsPath     string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("SYSTEM_BASE_CURRENCY", "USD")
	v.SetDefault("FX_CACHE_TTL", "5m")
	v.SetDefault("REVALUATION_SCHEDULE", "0 0 * * *")
	v.SetDefault("REVALUATION_WORKERS", 4)
	v.SetDefault("LEDGER_POST_REVALUATION", false)
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabaseURL:           v.GetString("PGSQL_URL"),
		Port:                  v.GetString("PORT"),
		IsProduction:          v.GetBool("IS_PRODUCTION"),
		EnableDBCheck:         v.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		StorageDriver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
		SystemBaseCurrency:    strings.ToUpper(v.GetString("SYSTEM_BASE_CURRENCY")),
		RevaluationSchedule:   v.GetString("REVALUATION_SCHEDULE"),
		RevaluationWorkers:    v.GetInt("REVALUATION_WORKERS"),
		LedgerPostRevaluation: v.GetBool("LEDGER_POST_REVALUATION"),
		RateLimit:             v.GetString("RATE_LIMIT"),
		MigrationsPath:        v.GetString("MIGRATIONS_PATH"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	ttlStr := v.GetString("FX_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FX_CACHE_TTL %q: %w", ttlStr, err)
	}
	cfg.FXCacheTTL = ttl

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if len(cfg.SystemBaseCurrency) != 3 {
		return nil, fmt.Errorf("invalid SYSTEM_BASE_CURRENCY %q", cfg.SystemBaseCurrency)
	}

	if cfg.RevaluationWorkers < 1 {
		log.Printf("Warning: REVALUATION_WORKERS=%d is not positive. Defaulting to 1.\n", cfg.RevaluationWorkers)
		cfg.RevaluationWorkers = 1
	}

	if cfg.LedgerPostRevaluation {
		return nil, fmt.Errorf("LEDGER_POST_REVALUATION=true is not supported: revaluation is reporting-only")
	}

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if o := strings.TrimSpace(origin); o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	if cfg.IsProduction && cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET is the built-in default. Set it before running in production.")
	}

	return cfg, nil
}
