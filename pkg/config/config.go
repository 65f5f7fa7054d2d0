package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backends
const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Storage
	Database DatabaseConfig
	Redis    RedisConfig

	// Market data provider
	Yahoo YahooConfig

	// Per-ticker acquisition policy
	Fetch FetchConfig

	// Bundle result cache
	Cache CacheConfig

	// Password gate
	Auth AuthConfig

	// Screening policy overrides (YAML), optional
	PolicyPath string

	// Shown to users before a batch starts
	ETAPerTicker time.Duration

	// Scheduled warm-up
	Watchlist         []string
	WatchlistSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration (postgres cache backend only)
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds Yahoo Finance endpoints
type YahooConfig struct {
	ChartURL     string
	QuoteURL     string
	PageURL      string
	SymbolSuffix string
	MaxRPS       float64 // local request ceiling, 0 disables
	Timeout      time.Duration
}

// FetchConfig is the retry and pacing policy of the fetcher
type FetchConfig struct {
	MaxRetries      int
	RetryDelay      time.Duration
	PacingMin       time.Duration
	PacingMax       time.Duration
	HistoryPeriod   string
	FallbackPeriod  string
	FallbackEnabled bool
}

// CacheConfig selects the bundle cache backend
type CacheConfig struct {
	Backend string
	TTL     time.Duration
	Prefix  string
}

// AuthConfig holds the shared passwords
type AuthConfig struct {
	UserPassword  string
	AdminPassword string
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Yahoo: YahooConfig{
			ChartURL:     getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			QuoteURL:     getEnv("YAHOO_QUOTE_URL", "https://query2.finance.yahoo.com/v10/finance/quoteSummary"),
			PageURL:      getEnv("YAHOO_PAGE_URL", "https://finance.yahoo.co.jp/quote"),
			SymbolSuffix: getEnv("YAHOO_SYMBOL_SUFFIX", ".T"),
			MaxRPS:       getEnvAsFloat("YAHOO_MAX_RPS", 1),
			Timeout:      getEnvAsDuration("YAHOO_TIMEOUT", "20s"),
		},

		Fetch: FetchConfig{
			MaxRetries:      getEnvAsInt("FETCH_MAX_RETRIES", 3),
			RetryDelay:      getEnvAsDuration("FETCH_RETRY_DELAY", "5s"),
			PacingMin:       getEnvAsDuration("FETCH_PACING_MIN", "2s"),
			PacingMax:       getEnvAsDuration("FETCH_PACING_MAX", "4s"),
			HistoryPeriod:   getEnv("FETCH_HISTORY_PERIOD", "6mo"),
			FallbackPeriod:  getEnv("FETCH_FALLBACK_PERIOD", "1mo"),
			FallbackEnabled: getEnvAsBool("FETCH_FALLBACK_ENABLED", true),
		},

		Cache: CacheConfig{
			Backend: strings.ToLower(getEnv("CACHE_BACKEND", CacheBackendMemory)),
			TTL:     getEnvAsDuration("CACHE_TTL", "1h"),
			Prefix:  getEnv("CACHE_PREFIX", "fuyaseru"),
		},

		Auth: AuthConfig{
			UserPassword:  getEnv("APP_PASSWORD", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			SessionTTL:    getEnvAsDuration("SESSION_TTL", "12h"),
		},

		PolicyPath:   getEnv("POLICY_PATH", ""),
		ETAPerTicker: getEnvAsDuration("ETA_PER_TICKER", "3s"),

		Watchlist:         getEnvAsList("WATCHLIST"),
		WatchlistSchedule: getEnv("WATCHLIST_SCHEDULE", "0 0 8 * * 1-5"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	switch c.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_ENABLED=true")
		}
	case CacheBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis, postgres")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Fetch.MaxRetries < 1 {
		return fmt.Errorf("FETCH_MAX_RETRIES must be >= 1")
	}
	if c.Fetch.PacingMin < 0 || c.Fetch.PacingMax < c.Fetch.PacingMin {
		return fmt.Errorf("FETCH_PACING_MIN must be >= 0 and <= FETCH_PACING_MAX")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma or whitespace separated value
func getEnvAsList(key string) []string {
	return strings.FieldsFunc(os.Getenv(key), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}
