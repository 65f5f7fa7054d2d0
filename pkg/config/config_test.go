package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected Port to be 8080, got %s", cfg.Port)
	}

	if cfg.Fetch.MaxRetries != 3 {
		t.Errorf("Expected 3 fetch retries, got %d", cfg.Fetch.MaxRetries)
	}

	if cfg.Fetch.RetryDelay != 5*time.Second {
		t.Errorf("Expected retry delay 5s, got %v", cfg.Fetch.RetryDelay)
	}

	if cfg.Fetch.PacingMin != 2*time.Second || cfg.Fetch.PacingMax != 4*time.Second {
		t.Errorf("Expected pacing 2s-4s, got %v-%v", cfg.Fetch.PacingMin, cfg.Fetch.PacingMax)
	}

	if cfg.Cache.Backend != CacheBackendMemory {
		t.Errorf("Expected memory cache backend, got %s", cfg.Cache.Backend)
	}

	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Expected cache TTL 1h, got %v", cfg.Cache.TTL)
	}

	if cfg.Yahoo.SymbolSuffix != ".T" {
		t.Errorf("Expected .T suffix, got %s", cfg.Yahoo.SymbolSuffix)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("CACHE_TTL", "12h")
	t.Setenv("FETCH_MAX_RETRIES", "5")
	t.Setenv("WATCHLIST", "7203, 9984\n6758")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("Expected cache TTL 12h, got %v", cfg.Cache.TTL)
	}

	if cfg.Fetch.MaxRetries != 5 {
		t.Errorf("Expected 5 retries, got %d", cfg.Fetch.MaxRetries)
	}

	if len(cfg.Watchlist) != 3 || cfg.Watchlist[2] != "6758" {
		t.Errorf("Expected 3 watchlist entries, got %v", cfg.Watchlist)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	if _, err := Load(); err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateCacheBackend(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"unknown backend", map[string]string{"CACHE_BACKEND": "memcached"}, true},
		{"redis without redis", map[string]string{"CACHE_BACKEND": "redis"}, true},
		{"redis enabled", map[string]string{"CACHE_BACKEND": "redis", "REDIS_ENABLED": "true"}, false},
		{"postgres without url", map[string]string{"CACHE_BACKEND": "postgres"}, true},
		{"postgres with url", map[string]string{"CACHE_BACKEND": "postgres", "DATABASE_URL": "postgres://x@localhost/y"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("DATABASE_URL")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePacingRange(t *testing.T) {
	t.Setenv("FETCH_PACING_MIN", "5s")
	t.Setenv("FETCH_PACING_MAX", "1s")

	if _, err := Load(); err == nil {
		t.Error("Expected error when pacing min exceeds max")
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != 2*time.Hour {
		t.Errorf("Expected duration to be 2h, got %v", got)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != time.Hour {
		t.Errorf("Expected fallback 1h, got %v", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	if value := getEnvAsInt("TEST_INT", 50); value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	if value := getEnvAsBool("TEST_BOOL", false); value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
