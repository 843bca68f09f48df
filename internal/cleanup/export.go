package cleanup

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/reflectic/curation-cli/internal/store"
)

// ExportQueue writes the undecided review queue to an XLSX workbook for
// offline human triage.
func ExportQueue(ctx context.Context, st store.Store, path string) (int, error) {
	flags, err := st.ListFlags(ctx, store.FlagFilter{Undecided: true})
	if err != nil {
		return 0, eris.Wrap(err, "export: list flags")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Review Queue")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Flag ID", "Insight ID", "Category", "Severity", "Confidence", "Reason", "Flagged At"} {
		header.AddCell().Value = h
	}

	for _, flag := range flags {
		row := sheet.AddRow()
		row.AddCell().Value = flag.ID
		row.AddCell().Value = flag.InsightID
		row.AddCell().Value = string(flag.Category)
		row.AddCell().Value = string(flag.Severity)
		row.AddCell().Value = fmt.Sprintf("%.2f", flag.Confidence)
		row.AddCell().Value = flag.Reason
		row.AddCell().Value = flag.FlaggedAt.UTC().Format("2006-01-02 15:04:05")
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrapf(err, "export: save %s", path)
	}
	return len(flags), nil
}
