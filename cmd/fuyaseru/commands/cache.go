package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "バンドルキャッシュ管理",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "キャッシュを全削除",
	Long: `キャッシュ済みの分析結果を全て削除します。

CACHE_BACKEND=redis|postgres の共有キャッシュが対象です。
memory バックエンドはプロセスごとのため、API サーバーでは
POST /api/admin/cache/clear を使ってください。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.orchestrator.ClearCache(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🧹 %d件のキャッシュを削除しました (%s)\n", n, a.cfg.Cache.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
