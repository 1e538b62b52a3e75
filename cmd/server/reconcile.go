package main

import (
	"github.com/spf13/cobra"
	"github.com/vedran77/receptionist/internal/service"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a single reconciliation pass over orphaned provider assistants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		reconciler := service.NewReconciler(a.tasks, a.provider, a.log, a.cfg.Reconcile.BatchSize)
		resolved, err := reconciler.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		a.log.Info(cmd.Context(), "reconciliation pass finished", "resolved", resolved)
		return nil
	},
}
