package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxdeedflow/comps-cli/internal/config"
	"github.com/taxdeedflow/comps-cli/internal/valuation"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "comps-cli",
	Short:        "Comparable-sales valuation and bid recommendations",
	Long:         "Grades comparable sales against a subject property, estimates ARV, repair costs, and MAO, and turns them into a three-tier auction bid recommendation with risk warnings.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		if err := valuation.ValidateConfig(cfg.Valuation); err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
