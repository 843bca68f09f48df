package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/cleanup"
)

var (
	cleanupAutoRemove  bool
	cleanupThreshold   float64
	cleanupCrossSource bool
	cleanupJSON        bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Scan the corpus for harmful, biased, low-quality, and duplicate records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		orch, err := newOrchestrator(st)
		if err != nil {
			return err
		}

		opts := cleanup.Options{
			AutoRemove:          cleanupAutoRemove,
			ConfidenceThreshold: cleanupThreshold,
			IncludeCrossSource:  cleanupCrossSource,
		}
		report, err := orch.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "cleanup run")
		}

		if cleanupJSON {
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal report")
			}
			fmt.Println(string(out))
			return nil
		}
		fmt.Print(report.Render())
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupAutoRemove, "auto-remove", false, "automatically remove high-confidence problems")
	cleanupCmd.Flags().Float64Var(&cleanupThreshold, "confidence-threshold", 0.8, "minimum confidence for auto-removal")
	cleanupCmd.Flags().BoolVar(&cleanupCrossSource, "cross-source", false, "also flag records with no cross-source corroboration")
	cleanupCmd.Flags().BoolVar(&cleanupJSON, "json", false, "print the machine-readable report")
	rootCmd.AddCommand(cleanupCmd)
}
