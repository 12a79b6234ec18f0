package main

import (
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-warehouse/internal/model"
)

var (
	replayLimit   int
	replayWorkers int
)

var replayCmd = &cobra.Command{
	Use:   "replay <kind>",
	Short: "Re-run extraction over stored raw payloads",
	Long:  "Re-normalizes captured payloads of one kind and re-merges the results. Useful after a normalizer fix; replace-set kinds converge instead of duplicating.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := model.PayloadKind(args[0])

		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		raws, err := env.store.ListRawByKind(cmd.Context(), kind, replayLimit)
		if err != nil {
			return err
		}
		if len(raws) == 0 {
			fmt.Println("no payloads of kind", kind)
			return nil
		}

		var succeeded, failed atomic.Int64
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(replayWorkers)

		for _, raw := range raws {
			g.Go(func() error {
				res := env.pipeline.Replay(ctx, raw)
				if !res.Success {
					failed.Add(1)
					zap.L().Warn("replay failed",
						zap.String("raw_id", raw.ID),
						zap.String("error", res.Error),
					)
					return nil
				}
				succeeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "replay")
		}

		fmt.Printf("replayed %d payloads: %d ok, %d failed\n", len(raws), succeeded.Load(), failed.Load())
		return nil
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayLimit, "limit", 1000, "max payloads to replay")
	replayCmd.Flags().IntVar(&replayWorkers, "workers", 4, "concurrent replay workers")
	rootCmd.AddCommand(replayCmd)
}
