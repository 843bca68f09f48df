package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/scoring"
	"github.com/reflectic/curation-cli/internal/store"
)

var curriculumShowOrder bool

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Classify the approved corpus into curriculum tiers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		corpus, err := st.ListInsights(ctx, store.InsightFilter{Status: model.StatusApproved})
		if err != nil {
			return err
		}

		counts := scoring.TierCounts(corpus)
		fmt.Println("Curriculum tiers")
		fmt.Println("----------------")
		for _, tier := range scoring.TierOrder {
			fmt.Printf("  %-14s %d\n", tier, counts[tier])
		}

		if curriculumShowOrder {
			byID := make(map[string]*model.InsightRecord, len(corpus))
			for i := range corpus {
				byID[corpus[i].ID] = &corpus[i]
			}
			fmt.Println()
			fmt.Println("Learning order")
			fmt.Println("--------------")
			for _, id := range scoring.CurriculumOrder(corpus) {
				rec := byID[id]
				fmt.Printf("  %-12s %s  %s\n", scoring.Classify(rec), rec.ID, rec.Title)
			}
		}
		return nil
	},
}

func init() {
	curriculumCmd.Flags().BoolVar(&curriculumShowOrder, "order", false, "print the full tier-ordered insight list")
	rootCmd.AddCommand(curriculumCmd)
}
