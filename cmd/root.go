package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "warehouse",
	Short: "B2B lead enrichment warehouse",
	Long:  "Captures provider payloads, extracts and normalizes them, resolves free-text attributes through the reference crosswalk, and merges into canonical company and person records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
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
