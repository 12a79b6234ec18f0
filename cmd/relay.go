package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-warehouse/internal/relay"
)

var (
	relayRate  float64
	relaySince string
	relayLimit int
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Deliver recently updated companies to the outbound webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Relay.WebhookURL == "" {
			return eris.New("relay.webhook_url is not configured")
		}

		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		since := time.Now().UTC().Add(-24 * time.Hour)
		if relaySince != "" {
			since, err = time.Parse(time.RFC3339, relaySince)
			if err != nil {
				return eris.Wrap(err, "parse --since")
			}
		}

		payloads, err := relay.CompaniesUpdatedSince(cmd.Context(), env.store.Pool(), since, relayLimit)
		if err != nil {
			return err
		}
		if len(payloads) == 0 {
			fmt.Println("nothing to relay")
			return nil
		}

		perSecond := relayRate
		if perSecond == 0 {
			perSecond = cfg.Relay.RatePerSec
		}

		d := relay.NewDispatcher(cfg.Relay.WebhookURL, cfg.Server.APIKey, perSecond,
			cfg.Relay.Burst, time.Duration(cfg.Relay.TimeoutSecs)*time.Second,
			relay.NewJobStore(env.store.Pool()))
		job, err := d.Dispatch(cmd.Context(), payloads)
		if job != nil {
			fmt.Printf("job %s: %s sent=%d failed=%d total=%d\n",
				job.ID, job.Status, job.Sent, job.Failed, job.Total)
		}
		return err
	},
}

func init() {
	relayCmd.Flags().Float64Var(&relayRate, "rate", 0, "deliveries per second (default from config)")
	relayCmd.Flags().StringVar(&relaySince, "since", "", "relay rows updated after this RFC3339 time (default 24h ago)")
	relayCmd.Flags().IntVar(&relayLimit, "limit", 500, "max rows to relay")
	rootCmd.AddCommand(relayCmd)
}
