package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/feedback"
	"github.com/reflectic/curation-cli/internal/model"
)

var metricsLast bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Recompute and show the corpus quality metrics snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var m *model.QualityMetrics
		if metricsLast {
			m, err = st.LatestMetrics(ctx)
			if err != nil {
				return err
			}
			if m == nil {
				fmt.Println("No metrics snapshot computed yet.")
				return nil
			}
		} else {
			agg := feedback.NewAggregator(st, cfg.Freshness, cfg.CrossSource)
			m, err = agg.ComputeMetrics(ctx)
			if err != nil {
				return err
			}
		}

		fmt.Printf("Overall quality:   %6.2f\n", m.OverallQuality)
		fmt.Printf("Diversity:         %6.2f\n", m.DiversityScore)
		fmt.Printf("Balance:           %6.2f\n", m.BalanceScore)
		fmt.Printf("Freshness:         %6.2f\n", m.FreshnessScore)
		fmt.Printf("Cross-source:      %6.2f\n", m.CrossSourceScore)
		fmt.Printf("User satisfaction: %6.2f\n", m.UserSatisfactionScore)
		fmt.Printf("Last calculated:   %s\n", m.LastCalculated.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsLast, "last", false, "show the cached snapshot without recomputing")
	rootCmd.AddCommand(metricsCmd)
}
