package spreadsheet

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/shelfmark/shelfmark/models"
)

// newFixture writes a workbook with an Overall sheet and one populated year
// sheet to a temp dir and opens it.
func newFixture(t *testing.T) *Workbook {
	t.Helper()

	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", OverallSheet); err != nil {
		t.Fatalf("rename default sheet: %v", err)
	}
	if _, err := file.NewSheet("2023"); err != nil {
		t.Fatalf("create year sheet: %v", err)
	}

	header := []any{"Title", "Author", "Pages", "Category", "Genre", "Date Read"}
	row := []any{"Cannery Row", "John Steinbeck", 181, "Fiction", "Classics", "12/08/23"}
	for _, sheet := range []string{OverallSheet, "2023"} {
		for i, value := range header {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("write header: %v", err)
			}
		}
		for i, value := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, 2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("write row: %v", err)
			}
		}
	}

	path := filepath.Join(t.TempDir(), "books.xlsx")
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	wb, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%q) error: %v", path, err)
	}
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.xlsx"))
	if err == nil {
		t.Fatal("Open succeeded for a missing file")
	}
}

func TestValidate(t *testing.T) {
	wb := newFixture(t)
	if err := wb.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestFirstBlankRow(t *testing.T) {
	wb := newFixture(t)

	row, err := wb.FirstBlankRow("2023")
	if err != nil {
		t.Fatalf("FirstBlankRow error: %v", err)
	}
	if row != 3 {
		t.Fatalf("FirstBlankRow = %d, want 3", row)
	}
}

func TestAppendRow(t *testing.T) {
	wb := newFixture(t)

	values := []any{"East of Eden", "John Steinbeck", 601, "Fiction", "Classics", "20/08/23"}
	if err := wb.AppendRow("2023", values); err != nil {
		t.Fatalf("AppendRow error: %v", err)
	}

	got, err := wb.file.GetCellValue("2023", "A3")
	if err != nil {
		t.Fatalf("read appended title: %v", err)
	}
	if got != "East of Eden" {
		t.Fatalf("A3 = %q, want %q", got, "East of Eden")
	}
	if got, _ := wb.file.GetCellValue("2023", "C3"); got != "601" {
		t.Fatalf("C3 = %q, want 601", got)
	}

	row, err := wb.FirstBlankRow("2023")
	if err != nil {
		t.Fatalf("FirstBlankRow error: %v", err)
	}
	if row != 4 {
		t.Fatalf("FirstBlankRow after append = %d, want 4", row)
	}
}

func TestEnsureYearSheetClonesAndBlanks(t *testing.T) {
	wb := newFixture(t)

	if err := wb.EnsureYearSheet("2024"); err != nil {
		t.Fatalf("EnsureYearSheet error: %v", err)
	}

	if idx, _ := wb.file.GetSheetIndex("2024"); idx < 0 {
		t.Fatal("sheet 2024 was not created")
	}
	if got, _ := wb.file.GetCellValue("2024", "A1"); got != "Title" {
		t.Fatalf("clone header A1 = %q, want Title", got)
	}
	if got, _ := wb.file.GetCellValue("2024", "A2"); got != "" {
		t.Fatalf("clone data row not blanked, A2 = %q", got)
	}
	formula, err := wb.file.GetCellFormula("2024", weekFormulaCell)
	if err != nil {
		t.Fatalf("read week formula: %v", err)
	}
	if formula != "(TODAY()-DATE(2024,1,1))/7" {
		t.Fatalf("week formula = %q", formula)
	}

	row, err := wb.FirstBlankRow("2024")
	if err != nil {
		t.Fatalf("FirstBlankRow error: %v", err)
	}
	if row != 2 {
		t.Fatalf("FirstBlankRow on fresh year sheet = %d, want 2", row)
	}
}

func TestEnsureYearSheetIdempotent(t *testing.T) {
	wb := newFixture(t)

	if err := wb.EnsureYearSheet("2024"); err != nil {
		t.Fatalf("first EnsureYearSheet error: %v", err)
	}
	before := len(wb.file.GetSheetList())
	if err := wb.EnsureYearSheet("2024"); err != nil {
		t.Fatalf("second EnsureYearSheet error: %v", err)
	}
	if after := len(wb.file.GetSheetList()); after != before {
		t.Fatalf("sheet count changed from %d to %d", before, after)
	}
}

func TestInputInfoAppendsToBothSheets(t *testing.T) {
	wb := newFixture(t)

	meta := models.BookMetadata{
		Title:    "The Pearl",
		Author:   "John Steinbeck",
		Pages:    96,
		Category: "Fiction",
		Genre:    "Classics",
	}
	if err := wb.InputInfo(meta, "03/07/24"); err != nil {
		t.Fatalf("InputInfo error: %v", err)
	}

	if idx, _ := wb.file.GetSheetIndex("2024"); idx < 0 {
		t.Fatal("year sheet 2024 was not created")
	}
	if got, _ := wb.file.GetCellValue("2024", "A2"); got != "The Pearl" {
		t.Fatalf("2024!A2 = %q, want The Pearl", got)
	}
	if got, _ := wb.file.GetCellValue(OverallSheet, "A3"); got != "The Pearl" {
		t.Fatalf("Overall!A3 = %q, want The Pearl", got)
	}
	if got, _ := wb.file.GetCellValue(OverallSheet, "F3"); got != "03/07/24" {
		t.Fatalf("Overall!F3 = %q, want 03/07/24", got)
	}

	// The save is synchronous; reopening must show the new row.
	reopened, err := Open(wb.path)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer reopened.Close()
	if got, _ := reopened.file.GetCellValue(OverallSheet, "A3"); got != "The Pearl" {
		t.Fatalf("persisted Overall!A3 = %q, want The Pearl", got)
	}
}
