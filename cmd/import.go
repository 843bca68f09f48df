package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/intake"
)

var importFilePath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a batch of candidate insights from a JSON payload",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(importFilePath)
		if err != nil {
			return eris.Wrapf(err, "read payload %s", importFilePath)
		}

		entries, err := intake.ParsePayload(data)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		result, err := intake.NewImporter(st).ImportBatch(ctx, entries)
		if err != nil {
			return eris.Wrap(err, "import batch")
		}

		fmt.Printf("Imported: %d\nFailed: %d\n", result.Imported, result.Failed)
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}

		zap.L().Info("import complete",
			zap.Int("imported", result.Imported),
			zap.Int("failed", result.Failed),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to JSON batch payload (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
