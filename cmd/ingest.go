package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-warehouse/internal/model"
)

var (
	ingestProvider string
	ingestIdentity string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <slug> <payload.json>",
	Short: "Ingest one payload file through the pipeline",
	Long:  "Runs a single JSON payload through the full capture, extract, crosswalk, and canonical merge flow. Accepted slugs: " + fmt.Sprint(model.Slugs()),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, path := args[0], args[1]

		body, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "read payload %s", path)
		}

		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.pipeline.Ingest(cmd.Context(), ingestProvider, slug, body, ingestIdentity)
		if !res.Success {
			return eris.New("ingest failed: " + res.Error)
		}

		fmt.Printf("raw=%s extracted=%d upserted=%d failures=%d\n",
			res.RawID, res.Extracted, res.Upserted, len(res.Failures))
		for _, f := range res.Failures {
			fmt.Printf("  item %d: %s\n", f.Index, f.Reason)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestProvider, "provider", "cli", "provider label stored with the raw payload")
	ingestCmd.Flags().StringVar(&ingestIdentity, "identity", "", "identity hint when the payload omits its domain")
	rootCmd.AddCommand(ingestCmd)
}
