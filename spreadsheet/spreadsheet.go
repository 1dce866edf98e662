// Package spreadsheet appends read-book rows to the personal workbook: one
// sheet per year plus an aggregate Overall sheet, six columns per row.
package spreadsheet

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/shelfmark/shelfmark/dates"
	"github.com/shelfmark/shelfmark/models"
)

// OverallSheet aggregates every year.
const OverallSheet = "Overall"

// dataColumns is the number of columns a row occupies (Title, Author, Pages,
// Category, Genre, DateRead).
const dataColumns = 6

// weekFormulaCell holds the week-count formula each year sheet carries.
const weekFormulaCell = "I5"

// Workbook wraps the xlsx file rows are appended to. It is exclusively owned
// by one run; Save persists everything in a single synchronous write.
type Workbook struct {
	file *excelize.File
	path string
	mu   sync.Mutex
}

// Open loads the workbook at path.
func Open(path string) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %q: %w", path, err)
	}
	return &Workbook{file: file, path: path}, nil
}

// Close releases the underlying file without saving.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// Validate ensures the workbook has the sheets a run will write to.
func (w *Workbook) Validate() error {
	index, err := w.file.GetSheetIndex(OverallSheet)
	if err != nil {
		return fmt.Errorf("look up %q sheet: %w", OverallSheet, err)
	}
	if index < 0 {
		return fmt.Errorf("workbook %q has no %q sheet", w.path, OverallSheet)
	}
	if len(w.file.GetSheetList()) < 2 {
		return fmt.Errorf("workbook %q has no year sheet to clone from", w.path)
	}
	return nil
}

// FirstBlankRow scans column A from row 1 and returns the first row whose
// cell is empty; rows are append-only, never inserted.
func (w *Workbook) FirstBlankRow(sheet string) (int, error) {
	for row := 1; ; row++ {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return 0, fmt.Errorf("cell name for row %d: %w", row, err)
		}
		value, err := w.file.GetCellValue(sheet, cell)
		if err != nil {
			return 0, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
		}
		if value == "" {
			return row, nil
		}
	}
}

// AppendRow writes the six row values into columns A-F at the first blank row.
func (w *Workbook) AppendRow(sheet string, values []any) error {
	row, err := w.FirstBlankRow(sheet)
	if err != nil {
		return err
	}
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("cell name for column %d: %w", i+1, err)
		}
		if err := w.file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// EnsureYearSheet creates the year sheet on demand by cloning the most
// recently added sheet, blanking its data rows and rewriting the week-count
// formula. Calling it for an existing sheet is a no-op.
func (w *Workbook) EnsureYearSheet(year string) error {
	sheets := w.file.GetSheetList()
	for _, name := range sheets {
		if name == year {
			return nil
		}
	}

	source := sheets[len(sheets)-1]
	sourceIndex, err := w.file.GetSheetIndex(source)
	if err != nil {
		return fmt.Errorf("index of sheet %q: %w", source, err)
	}
	targetIndex, err := w.file.NewSheet(year)
	if err != nil {
		return fmt.Errorf("create sheet %q: %w", year, err)
	}
	if err := w.file.CopySheet(sourceIndex, targetIndex); err != nil {
		return fmt.Errorf("clone sheet %q into %q: %w", source, year, err)
	}

	// Strip every data row of the clone, keeping the header.
	lastRow, err := w.FirstBlankRow(year)
	if err != nil {
		return err
	}
	for row := 2; row <= lastRow; row++ {
		for col := 1; col <= dataColumns; col++ {
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return fmt.Errorf("cell name %d,%d: %w", col, row, err)
			}
			if err := w.file.SetCellValue(year, cell, nil); err != nil {
				return fmt.Errorf("blank %s!%s: %w", year, cell, err)
			}
		}
	}

	formula := fmt.Sprintf("(TODAY()-DATE(%s,1,1))/7", year)
	if err := w.file.SetCellFormula(year, weekFormulaCell, formula); err != nil {
		return fmt.Errorf("week formula on %q: %w", year, err)
	}

	slog.Info("created year sheet", slog.String("sheet", year), slog.String("cloned_from", source))
	return nil
}

// InputInfo appends the same row to the year sheet and the Overall sheet,
// creating the year sheet first when needed, then persists the workbook. If
// the process dies between the two appends the file on disk keeps only the
// writes that completed before it; there is no transaction support.
func (w *Workbook) InputInfo(meta models.BookMetadata, dateRead string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	year := dates.YearSheetName(dateRead)
	if err := w.EnsureYearSheet(year); err != nil {
		return err
	}

	row := meta.Row(dateRead)
	for _, sheet := range []string{year, OverallSheet} {
		if err := w.AppendRow(sheet, row); err != nil {
			return err
		}
	}

	if err := w.file.Save(); err != nil {
		return fmt.Errorf("save workbook %q: %w", w.path, err)
	}
	return nil
}
