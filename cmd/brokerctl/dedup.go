package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"brokerscope/internal/dedup"
	"brokerscope/internal/store"
)

func dedupCmd(a *app) *cobra.Command {
	var apply, strict, asJSON bool
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Find and delete brokers with duplicate names",
		Long: `Group brokers by lowercased, trimmed name and keep one per group: the
highest rated, then the oldest. Without --apply nothing is deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}

			ctx := cmd.Context()
			report, err := dedup.Run(ctx, store.NewBrokerStore(a.db), !apply)
			if report != nil && apply {
				mlog := a.maintenanceLog()
				for _, o := range report.Outcomes {
					mlog.Log(ctx, "dedup", o.ID.String(), string(o.Status), o.Reason)
				}
				if report.Succeeded() > 0 {
					a.invalidateCache(ctx)
				}
			}
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printDedupReport(cmd.OutOrStdout(), report)
			}
			return strictResult(report.Failed(), strict)
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "delete the duplicates instead of only listing them")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any deletion fails")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDedupReport(w io.Writer, r *dedup.Report) {
	fmt.Fprintf(w, "scanned %d brokers, %d duplicate groups, %d deletions planned\n",
		r.Scanned, len(r.Plan.Groups), r.Plan.Deletions())
	for _, g := range r.Plan.Groups {
		fmt.Fprintf(w, "  %q: keep %s (%s)\n", g.Key, g.Keep.Slug, g.Keep.ID)
		for _, b := range g.Remove {
			fmt.Fprintf(w, "    remove %s (%s)\n", b.Slug, b.ID)
		}
	}
	if r.DryRun {
		fmt.Fprintln(w, "dry run: nothing deleted, rerun with --apply")
		return
	}
	printOutcomes(w, r.Outcomes)
	fmt.Fprintf(w, "%d duplicate groups remain\n", len(r.Remaining))
}

func printOutcomes(w io.Writer, outcomes []dedup.Outcome) {
	failed := 0
	for _, o := range outcomes {
		if o.Status == dedup.StatusFailure {
			failed++
			fmt.Fprintf(w, "  FAILED %s %q: %s\n", o.ID, o.Name, o.Reason)
		}
	}
	fmt.Fprintf(w, "deleted %d, failed %d\n", len(outcomes)-failed, failed)
}
