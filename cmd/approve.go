package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/model"
)

var approveCmd = &cobra.Command{
	Use:   "approve <insight-id>",
	Short: "Approve a pending insight for training use",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusApproved)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <insight-id>",
	Short: "Reject a pending insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], model.StatusRejected)
	},
}

func setStatus(cmd *cobra.Command, id string, status model.Status) error {
	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.GetInsight(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return eris.Errorf("insight not found: %s", id)
	}
	if rec.Status != model.StatusPending && rec.Status != model.StatusNeedsEdit {
		return eris.Errorf("insight %s is %s, only pending or needs_edit insights can be decided", id, rec.Status)
	}

	if err := st.UpdateInsightStatus(ctx, id, status); err != nil {
		return err
	}
	fmt.Printf("Insight %s is now %s\n", id, status)
	return nil
}

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
}
