package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	policyPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fuyaseru",
	Short: "フヤセルブレイン - 理論株価スクリーニング",
	Long: `Fuyaseru Brain CLI

東証銘柄の理論株価（グレアム数）・売買シグナル・需給の壁・大口介入期待度を一括計算します。

Usage:
  go run ./cmd/fuyaseru [command]

Examples:
  go run ./cmd/fuyaseru screen 7203 6758 285A
  go run ./cmd/fuyaseru api
  go run ./cmd/fuyaseru cache clear
  go run ./cmd/fuyaseru scheduler start`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "screening policy YAML (overrides POLICY_PATH)")
}
