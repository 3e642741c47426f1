package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/privasee/privasee/internal/model"
)

// DecisionsSheet is the worksheet written by DecisionsXLSX.
const DecisionsSheet = "Decisions"

// DecisionsXLSX writes records as an Excel workbook to out.
func DecisionsXLSX(out io.Writer, records []model.DecisionRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet so the workbook has exactly one.
	if err := f.SetSheetName(f.GetSheetName(0), DecisionsSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"Image ID", "Status", "Updated At (UTC)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(DecisionsSheet, cell, h)
	}

	for i, rec := range records {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(DecisionsSheet, cell, v)
		}
		write(1, rec.ImageID)
		write(2, string(rec.Status))
		write(3, rec.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
	}

	_ = f.SetColWidth(DecisionsSheet, "A", "A", 60)
	_ = f.SetColWidth(DecisionsSheet, "B", "B", 16)
	_ = f.SetColWidth(DecisionsSheet, "C", "C", 22)
	if len(records) > 0 {
		_ = f.AutoFilter(DecisionsSheet, fmt.Sprintf("A1:C%d", len(records)+1), nil)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
