package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-warehouse/internal/crosswalk"
)

var crosswalkCmd = &cobra.Command{
	Use:   "crosswalk",
	Short: "Manage the reference vocabulary",
}

var crosswalkLoadCmd = &cobra.Command{
	Use:   "load <seed.yaml>",
	Short: "Bulk-load crosswalk entries from a seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := crosswalk.LoadSeedFile(cmd.Context(), env.store.Pool(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("loaded %d crosswalk entries\n", n)
		return nil
	},
}

func init() {
	crosswalkCmd.AddCommand(crosswalkLoadCmd)
	rootCmd.AddCommand(crosswalkCmd)
}
