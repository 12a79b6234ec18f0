package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the warehouse schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initWarehouse(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.store.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("migration applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
