package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fuyaseru/brain/internal/scheduler"
	"github.com/fuyaseru/brain/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "スケジューラ管理",
	Long: `定期ジョブを実行します。

登録されるジョブ:
- bundle_cache_cleanup: 5分ごと (期限切れキャッシュ削除)
- watchlist_warmup: WATCHLIST_SCHEDULE (WATCHLIST の事前計算)

Example:
  go run ./cmd/fuyaseru scheduler start
  go run ./cmd/fuyaseru scheduler list
  go run ./cmd/fuyaseru scheduler run watchlist_warmup`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "スケジューラ起動 (Ctrl+C で終了)",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "登録ジョブ一覧",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "ジョブを即時実行",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd, schedulerListCmd, schedulerRunCmd)
}

// buildScheduler registers the jobs the current config enables
func buildScheduler(a *app) (*scheduler.Scheduler, error) {
	s := scheduler.New(a.log)

	if sw := a.sweeper(); sw != nil {
		if err := s.AddJob(jobs.NewCacheCleanupJob(sw, nil, a.log)); err != nil {
			return nil, err
		}
	}
	if len(a.cfg.Watchlist) > 0 {
		warmup := jobs.NewWatchlistWarmupJob(a.orchestrator, a.cfg.Watchlist, a.cfg.WatchlistSchedule, a.log)
		if err := s.AddJob(warmup); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := buildScheduler(a)
	if err != nil {
		return err
	}
	if len(s.Jobs()) == 0 {
		return fmt.Errorf("no jobs enabled: set WATCHLIST or use a memory/postgres cache backend")
	}

	s.Start()
	fmt.Fprintf(cmd.OutOrStdout(), "⏰ Scheduler running %v (Ctrl+C to stop)\n", s.Jobs())
	<-ctx.Done()
	s.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	s, err := buildScheduler(a)
	if err != nil {
		return err
	}
	for name, st := range s.Stats() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", name, st.Schedule)
	}
	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	s, err := buildScheduler(a)
	if err != nil {
		return err
	}
	result, err := s.RunNow(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempts: %s", result.JobName, result.Attempts, result.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s completed in %s\n", result.JobName, result.Duration.Round(time.Millisecond))
	return nil
}
