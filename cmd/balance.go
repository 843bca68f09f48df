package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/model"
	"github.com/reflectic/curation-cli/internal/store"
	"github.com/reflectic/curation-cli/internal/validate"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show category distribution against the fixed balance targets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		corpus, err := st.ListInsights(ctx, store.InsightFilter{Status: model.StatusApproved})
		if err != nil {
			return eris.Wrap(err, "list corpus")
		}

		balances := validate.ComputeBalance(corpus)
		fmt.Printf("%-22s %-14s %6s %7s  %s\n", "CATEGORY", "DOMAIN", "COUNT", "TARGET", "STATUS")
		for _, b := range balances {
			fmt.Printf("%-22s %-14s %6d %7d  %s\n",
				b.Category, b.Domain, b.Count, b.TargetCount, b.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
