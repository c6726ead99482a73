// pantry/export/export.go

// Package export writes tabular data as an Excel workbook or CSV file.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyHeaders is returned when a Table has no columns.
var ErrEmptyHeaders = errors.New("export: headers cannot be empty")

// Table is a header row followed by data rows. Rows shorter than Headers
// leave trailing cells empty; longer rows are truncated.
type Table struct {
	Headers []string
	Rows    [][]string
}

// maxColWidth caps auto-sized columns so long messages stay readable.
const maxColWidth = 60

// WriteXLSX writes t to w as a single-sheet workbook with a bold, frozen
// header row and auto-sized columns.
func WriteXLSX(w io.Writer, sheet string, t Table) error {
	if len(t.Headers) == 0 {
		return ErrEmptyHeaders
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("export: rename sheet: %w", err)
		}
	}

	widths := make([]int, len(t.Headers))
	write := func(row int, values []string) error {
		cells := make([]any, len(t.Headers))
		for i := range t.Headers {
			v := ""
			if i < len(values) {
				v = values[i]
			}
			cells[i] = v
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &cells)
	}

	if err := write(1, t.Headers); err != nil {
		return fmt.Errorf("export: header row: %w", err)
	}
	for i, r := range t.Rows {
		if err := write(i+2, r); err != nil {
			return fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("export: freeze header: %w", err)
	}

	for i, n := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(min(n, maxColWidth) + 2)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("export: column width: %w", err)
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// WriteCSV writes t to w as comma-separated values with CRLF line endings.
func WriteCSV(w io.Writer, t Table) error {
	if len(t.Headers) == 0 {
		return ErrEmptyHeaders
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, r := range t.Rows {
		row := make([]string, len(t.Headers))
		copy(row, r)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
