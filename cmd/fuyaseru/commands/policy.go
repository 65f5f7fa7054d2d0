package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fuyaseru/brain/internal/screenconfig"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "スクリーニング基準の表示",
	Long: `有効なスクリーニング基準（デフォルト + POLICY_PATH / --policy の上書き）を
YAML で出力します。出力はそのまま POLICY_PATH に使えます。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := screenconfig.Load(cfg.PolicyPath)
		if err != nil {
			return err
		}
		hash, err := screenconfig.Hash(p)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal policy: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# policy hash: %s\n%s", hash, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
