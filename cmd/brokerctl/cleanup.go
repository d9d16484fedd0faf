package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"brokerscope/internal/dedup"
	"brokerscope/internal/store"
)

func cleanupCmd(a *app) *cobra.Command {
	var names []string
	var strict bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete brokers by name",
		Long: `Delete every broker whose lowercased, trimmed name matches one of the
--name values. Reviews and category links are deleted with them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(names) == 0 {
				return errors.New("at least one --name is required")
			}
			if err := a.open(); err != nil {
				return err
			}

			ctx := cmd.Context()
			outcomes, err := dedup.Cleanup(ctx, store.NewBrokerStore(a.db), names)
			if err != nil {
				return err
			}

			mlog := a.maintenanceLog()
			deleted := 0
			for _, o := range outcomes {
				mlog.Log(ctx, "cleanup", o.ID.String(), string(o.Status), o.Reason)
				if o.Status == dedup.StatusSuccess {
					deleted++
				}
			}
			if deleted > 0 {
				a.invalidateCache(ctx)
			}

			w := cmd.OutOrStdout()
			if len(outcomes) == 0 {
				fmt.Fprintln(w, "no brokers matched")
				return nil
			}
			printOutcomes(w, outcomes)
			return strictResult(len(outcomes)-deleted, strict)
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "broker name to delete (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any deletion fails")
	return cmd
}
