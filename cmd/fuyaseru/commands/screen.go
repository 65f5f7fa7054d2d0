package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fuyaseru/brain/internal/contracts"
	"github.com/fuyaseru/brain/internal/report"
	"github.com/fuyaseru/brain/internal/s1_universe"
)

var screenCmd = &cobra.Command{
	Use:   "screen [codes...]",
	Short: "銘柄を一括分析",
	Long: `証券コードを一括分析して表を出力します。

コードを引数で渡さない場合は標準入力から読み込みます（改行・空白・カンマ区切り、全角可）。
進捗は標準エラー、結果は標準出力に出力されます。

Example:
  go run ./cmd/fuyaseru screen 7203 6758 285A
  pbpaste | go run ./cmd/fuyaseru screen --json`,
	RunE: runScreen,
}

var (
	screenJSON    bool
	screenNoCache bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "JSON で出力")
	screenCmd.Flags().BoolVar(&screenNoCache, "no-cache", false, "キャッシュを無視して再計算")
}

func runScreen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	codes, err := readCodes(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		return fmt.Errorf("有効な証券コードがありません")
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	stderr := cmd.ErrOrStderr()
	eta := report.ETA(len(codes), a.cfg.ETAPerTicker)
	fmt.Fprintf(stderr, "🚀 %d銘柄を分析中...（予想完了時間: %s）\n", len(codes), report.ETAText(eta))

	if screenNoCache {
		if err := a.orchestrator.Invalidate(ctx, codes); err != nil {
			a.log.WithError(err).Warn("Failed to invalidate cached bundle")
		}
	}

	bundle, fromCache, err := a.orchestrator.Run(ctx, codes, func(done, total int, last contracts.TickerResult) {
		if last.Code == "" {
			return
		}
		fmt.Fprintf(stderr, "[%d/%d] %s %s (%s)\n", done, total, last.Code, last.Name, last.Status)
	})
	if err != nil && bundle == nil {
		return err
	}
	if fromCache {
		fmt.Fprintln(stderr, "⚡ キャッシュから表示しています")
	}

	out := cmd.OutOrStdout()
	if screenJSON {
		if werr := writeBundleJSON(out, bundle); werr != nil {
			return werr
		}
	} else if werr := writeTable(out, bundle); werr != nil {
		return werr
	}
	return err
}

// readCodes takes codes from args, or stdin when there are none
func readCodes(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return s1_universe.ParseCodes(strings.Join(args, " ")), nil
	}
	var sb strings.Builder
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return s1_universe.ParseCodes(sb.String()), nil
}

func writeTable(w io.Writer, b *contracts.Bundle) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(report.Headers, "\t"))
	for _, row := range report.Rows(b) {
		fmt.Fprintln(tw, strings.Join(row.Cells(), "\t"))
	}
	return tw.Flush()
}

func writeBundleJSON(w io.Writer, b *contracts.Bundle) error {
	results := b.Ordered()
	for i := range results {
		results[i].History = nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"codes":        b.Codes,
		"generated_at": b.GeneratedAt,
		"rows":         report.Rows(b),
		"results":      results,
	})
}
