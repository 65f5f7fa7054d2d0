package commands

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/fuyaseru/brain/internal/brain"
	"github.com/fuyaseru/brain/internal/bundlecache"
	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/external/yahoo"
	"github.com/fuyaseru/brain/internal/s0_data"
	"github.com/fuyaseru/brain/internal/screenconfig"
	"github.com/fuyaseru/brain/pkg/config"
	"github.com/fuyaseru/brain/pkg/database"
	"github.com/fuyaseru/brain/pkg/httputil"
	"github.com/fuyaseru/brain/pkg/logger"
	"github.com/fuyaseru/brain/pkg/metrics"
	"github.com/fuyaseru/brain/pkg/redis"
)

// app holds the wired components shared by every command
type app struct {
	cfg          *config.Config
	log          *logger.Logger
	policy       *screenconfig.Policy
	metrics      *metrics.Recorder
	redis        *redis.Client
	db           *database.DB
	cache        contracts.BundleCache
	orchestrator *brain.BundleOrchestrator
}

// loadConfig reads env config and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if policyPath != "" {
		cfg.PolicyPath = policyPath
	}
	return cfg, nil
}

// newApp connects the configured backends and builds the pipeline.
// Call close when done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	policy, err := screenconfig.Load(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	hash, err := screenconfig.Hash(policy)
	if err != nil {
		return nil, fmt.Errorf("hash policy: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"policy_path": cfg.PolicyPath,
		"policy_hash": hash,
	}).Info("Screening policy loaded")

	a := &app{cfg: cfg, log: log, policy: policy}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 1. Shared backends
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if cfg.Cache.Backend == config.CacheBackendPostgres {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Info("Connected to database")
	}

	a.cache, err = bundlecache.Open(ctx, cfg, a.redis, a.db, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open bundle cache: %w", err)
	}

	// 2. Provider client: local ceiling plus a shared budget when Redis is on.
	// The fetcher owns retries, so the HTTP layer does not retry.
	httpClient := httputil.New(log, cfg.Yahoo.Timeout).
		DisableRetry().
		WithHeader("Accept-Language", "ja-JP,ja;q=0.9")
	if cfg.Yahoo.MaxRPS > 0 {
		httpClient.WithLimiter(rate.NewLimiter(rate.Limit(cfg.Yahoo.MaxRPS), 1))
	}
	if a.redis.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, cfg.Cache.Prefix), redis.YahooRateLimit)
	}
	source := yahoo.NewClient(httpClient, cfg.Yahoo, log)

	// 3. Pipeline
	fetcher := s0_data.NewRetryingFetcher(source, s0_data.PolicyFromConfig(cfg.Fetch), a.metrics, log)
	pipeline := brain.NewTickerPipeline(fetcher, source, policy, log)
	a.orchestrator = brain.NewBundleOrchestrator(pipeline, a.cache, cfg.Cache.TTL, a.metrics, log)

	log.WithFields(map[string]interface{}{
		"cache_backend": cfg.Cache.Backend,
		"cache_ttl":     cfg.Cache.TTL,
		"redis":         a.redis.Enabled(),
	}).Debug("Application wired")

	return a, nil
}

// sweeper returns the cache as a Sweeper when the backend needs sweeping
func (a *app) sweeper() bundlecache.Sweeper {
	s, _ := a.cache.(bundlecache.Sweeper)
	return s
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
