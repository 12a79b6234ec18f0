package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-warehouse/internal/backfill"
)

var (
	backfillBatchSize  int
	backfillMaxBatches int
	backfillDryRun     bool
	backfillJob        string
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Reconcile canonical fields from extracted sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		jobs := backfill.Jobs()
		if backfillJob != "" {
			job, ok := backfill.JobByName(backfillJob)
			if !ok {
				return eris.New("unknown backfill job: " + backfillJob)
			}
			jobs = []backfill.Job{job}
		}

		batchSize := backfillBatchSize
		if batchSize == 0 {
			batchSize = cfg.Backfill.BatchSize
		}
		maxBatches := backfillMaxBatches
		if maxBatches == 0 {
			maxBatches = cfg.Backfill.MaxBatches
		}

		r := backfill.New(env.store.Pool(), env.upserter)
		reports, err := r.Run(cmd.Context(), jobs, backfill.Options{
			BatchSize:  batchSize,
			MaxBatches: maxBatches,
			DryRun:     backfillDryRun,
		})
		for _, rep := range reports {
			fmt.Printf("%s: candidates=%d written=%d skipped=%d dry_run=%v\n",
				rep.Job, rep.Candidates, rep.Written, rep.Skipped, rep.DryRun)
			for _, src := range rep.Sources {
				fmt.Printf("  %s: candidates=%d written=%d skipped=%d\n",
					src.Source, src.Candidates, src.Written, src.Skipped)
			}
		}
		return err
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillJob, "job", "", "run a single job (default all)")
	backfillCmd.Flags().IntVar(&backfillBatchSize, "batch-size", 0, "candidates per batch (default from config)")
	backfillCmd.Flags().IntVar(&backfillMaxBatches, "max-batches", 0, "batch cap per source (default from config)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "select and count without writing")
	rootCmd.AddCommand(backfillCmd)
}
