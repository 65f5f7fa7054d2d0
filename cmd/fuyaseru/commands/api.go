package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuyaseru/brain/internal/api"
	"github.com/fuyaseru/brain/internal/api/auth"
	"github.com/fuyaseru/brain/internal/api/handlers"
	"github.com/fuyaseru/brain/internal/api/jobs"
	"github.com/fuyaseru/brain/internal/scheduler"
	schedjobs "github.com/fuyaseru/brain/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API サーバー起動",
	Long: `REST API サーバーを起動します。

Endpoints:
  GET  /health                   - ヘルスチェック
  GET  /metrics                  - Prometheus メトリクス (METRICS_ENABLED)
  POST /api/auth/login           - ログイン
  POST /api/auth/logout          - ログアウト
  GET  /api/auth/session         - セッション確認
  POST /api/screen               - 一括分析（同期）
  POST /api/screen/eta           - 予想完了時間
  POST /api/screen/jobs          - 一括分析ジョブ登録
  GET  /api/screen/jobs/{id}     - ジョブ状態・結果
  GET  /ws/jobs/{id}             - ジョブ進捗 (WebSocket)
  POST /api/admin/cache/clear    - キャッシュ削除（管理者）

Example:
  go run ./cmd/fuyaseru api
  go run ./cmd/fuyaseru api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API サーバーポート (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Wire the pipeline
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg, log := a.cfg, a.log
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Sessions and jobs
	authenticator := auth.NewAuthenticator(cfg.Auth)
	if authenticator.Open() {
		log.Warn("No APP_PASSWORD or ADMIN_PASSWORD set, API is open to everyone")
	}
	sessions := auth.NewSessionStore(cfg.Auth.SessionTTL)
	manager := jobs.NewManager(a.orchestrator, cfg.ETAPerTicker, time.Hour, log)

	// 3. Background maintenance
	sched := scheduler.New(log)
	if err := sched.AddJob(schedjobs.NewCacheCleanupJob(a.sweeper(), sessions, log)); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	if len(cfg.Watchlist) > 0 {
		warmup := schedjobs.NewWatchlistWarmupJob(a.orchestrator, cfg.Watchlist, cfg.WatchlistSchedule, log)
		if err := sched.AddJob(warmup); err != nil {
			return fmt.Errorf("schedule warm-up: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	// 4. Router
	checks := map[string]handlers.HealthCheck{}
	if a.redis.Enabled() {
		checks["redis"] = a.redis.Ping
	}
	if a.db != nil {
		checks["database"] = func(ctx context.Context) error {
			if hs := a.db.HealthCheck(ctx); !hs.Healthy {
				return fmt.Errorf("database unhealthy: %s", hs.Error)
			}
			return nil
		}
	}

	router := api.NewRouter(api.Handlers{
		Auth:   handlers.NewAuthHandler(authenticator, sessions, cfg.Env == "production", log),
		Screen: handlers.NewScreenHandler(ctx, manager, cfg.ETAPerTicker, log),
		Admin:  handlers.NewAdminHandler(a.orchestrator, log),
		Health: handlers.NewHealthHandler("fuyaseru-brain", checks),
	}, api.Gate{Authenticator: authenticator, Sessions: sessions}, a.metrics, log)

	// 5. Serve until signalled
	server := api.New(cfg, log, router)
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Server running on http://localhost:%s (Ctrl+C to stop)\n", cfg.Port)

	if err := server.Run(ctx, 30*time.Second); err != nil {
		return err
	}
	manager.Wait()

	log.Info("Server stopped")
	return nil
}
