package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/cleanup"
	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage the flagged-insight review queue",
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List undecided flags",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		flags, err := st.ListFlags(ctx, store.FlagFilter{Undecided: true})
		if err != nil {
			return eris.Wrap(err, "list flags")
		}
		if len(flags) == 0 {
			fmt.Println("Review queue is empty.")
			return nil
		}
		for _, f := range flags {
			fmt.Printf("%s  [%s/%s  %.2f]  insight=%s  %s\n",
				f.ID, f.Category, f.Severity, f.Confidence, f.InsightID, f.Reason)
		}
		return nil
	},
}

var reviewDecision string

var reviewDecideCmd = &cobra.Command{
	Use:   "decide <flag-id>",
	Short: "Record a keep/remove/edit decision on a flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reviewer := cleanup.NewReviewer(st)
		if err := reviewer.Decide(ctx, args[0], model.Decision(reviewDecision)); err != nil {
			return err
		}
		fmt.Printf("Flag %s: %s\n", args[0], reviewDecision)
		return nil
	},
}

var (
	removeIDs         []string
	removeCategory    string
	removeMinSeverity string
)

var reviewRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Bulk-remove flagged records by flag ids, category, or minimum severity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reviewer := cleanup.NewReviewer(st)

		var removed int
		switch {
		case len(removeIDs) > 0:
			removed, err = reviewer.BulkRemove(ctx, removeIDs)
		case removeCategory != "":
			removed, err = reviewer.RemoveByCategory(ctx, model.FlagCategory(removeCategory))
		case removeMinSeverity != "":
			removed, err = reviewer.RemoveBySeverity(ctx, model.Severity(removeMinSeverity))
		default:
			return eris.New("one of --ids, --category, or --min-severity is required")
		}
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d record(s).\n", removed)
		return nil
	},
}

var reviewClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the review queue without touching any records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := cleanup.NewReviewer(st).ClearAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d flag(s).\n", n)
		return nil
	},
}

var exportPath string

var reviewExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the review queue to an XLSX workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := cleanup.ExportQueue(ctx, st, exportPath)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d flag(s) to %s\n", n, exportPath)
		return nil
	},
}

func init() {
	reviewDecideCmd.Flags().StringVar(&reviewDecision, "decision", "", "keep, remove, or edit (required)")
	_ = reviewDecideCmd.MarkFlagRequired("decision")

	reviewRemoveCmd.Flags().StringSliceVar(&removeIDs, "ids", nil, "flag ids to remove")
	reviewRemoveCmd.Flags().StringVar(&removeCategory, "category", "", "remove all records flagged with this category")
	reviewRemoveCmd.Flags().StringVar(&removeMinSeverity, "min-severity", "", "remove all records flagged at or above this severity")

	reviewExportCmd.Flags().StringVar(&exportPath, "out", "review-queue.xlsx", "output path")

	reviewCmd.AddCommand(reviewListCmd, reviewDecideCmd, reviewRemoveCmd, reviewClearCmd, reviewExportCmd)
	rootCmd.AddCommand(reviewCmd)
}
