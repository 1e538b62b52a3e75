package main

import (
	"github.com/spf13/cobra"
	"github.com/vedran77/receptionist/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <up|down|status|version|redo|reset>",
	Short: "Manage the database schema",
	Long: `Run goose migrations embedded in the binary against the configured database.

Examples:
  receptionist migrate up
  receptionist migrate status
  receptionist migrate down`,
	Args:      cobra.MinimumNArgs(1),
	ValidArgs: []string{"up", "down", "status", "version", "redo", "reset"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.Migrate(cmd.Context(), a.pool, args[0], args[1:]...); err != nil {
			return err
		}
		a.log.Info(cmd.Context(), "migrate finished", "command", args[0])
		return nil
	},
}
