package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reflectic/curation-cli/internal/feedback"
	"github.com/reflectic/curation-cli/internal/model"
)

var (
	feedbackConversation string
	feedbackInsight      string
	feedbackRating       string
	feedbackCategory     string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and inspect downstream usage feedback",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a feedback entry to the log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !model.KnownRating(feedbackRating) {
			return eris.Errorf("feedback: unknown rating %q", feedbackRating)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entry := &model.UserFeedback{
			ID:             uuid.NewString(),
			ConversationID: feedbackConversation,
			InsightID:      feedbackInsight,
			Rating:         model.Rating(feedbackRating),
			Category:       feedbackCategory,
			CreatedAt:      time.Now().UTC(),
		}
		if err := st.AppendFeedback(ctx, entry, cfg.Feedback.MaxEntries); err != nil {
			return err
		}

		fmt.Printf("Recorded %s feedback %s\n", entry.Rating, entry.ID)
		return nil
	},
}

var feedbackStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the feedback log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListFeedback(ctx, 0)
		if err != nil {
			return err
		}

		counts := make(map[model.Rating]int)
		for _, e := range entries {
			counts[e.Rating]++
		}

		fmt.Printf("Entries:      %d\n", len(entries))
		for _, r := range []model.Rating{model.RatingHelpful, model.RatingNeutral, model.RatingUnhelpful, model.RatingHarmful} {
			fmt.Printf("  %-11s %d\n", r, counts[r])
		}
		fmt.Printf("Satisfaction: %.2f\n", feedback.Satisfaction(entries))

		if ids := feedback.ProblematicInsights(entries); len(ids) > 0 {
			fmt.Println("Problematic insights:")
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
		}
		return nil
	},
}

func init() {
	feedbackAddCmd.Flags().StringVar(&feedbackConversation, "conversation", "", "conversation id the insight was used in")
	feedbackAddCmd.Flags().StringVar(&feedbackInsight, "insight", "", "insight id the feedback refers to")
	feedbackAddCmd.Flags().StringVar(&feedbackRating, "rating", "", "helpful, neutral, unhelpful or harmful")
	feedbackAddCmd.Flags().StringVar(&feedbackCategory, "category", "", "insight category, if known")
	_ = feedbackAddCmd.MarkFlagRequired("conversation")
	_ = feedbackAddCmd.MarkFlagRequired("rating")

	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackStatsCmd)
	rootCmd.AddCommand(feedbackCmd)
}
