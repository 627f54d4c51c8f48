package spreadsheet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVStripsBOMAndAllowsRaggedRows(t *testing.T) {
	input := "\ufeffEntryDate,8:00,9:00\n45000,5,7\n45001,3\n"
	sheet, err := ReadCSV(strings.NewReader(input), "prod.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if sheet.Header()[0] != "EntryDate" {
		t.Fatalf("header[0] = %q", sheet.Header()[0])
	}
	rows := sheet.DataRows()
	if len(rows) != 2 || len(rows[1]) != 2 {
		t.Fatalf("unexpected rows %v", rows)
	}
	if Cell(rows[1], 2) != "" {
		t.Fatal("out of range cell should be empty")
	}
}

func TestReadFileXLSXKeepsRawSerials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prod.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"EntryDate", "8:00", "9:00"},
		{45000, 5, 7},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := f.SetCellStyle(sheet, "A2", "A2", style); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(got.Rows))
	}
	if got.Rows[1][0] != "45000" {
		t.Fatalf("date cell = %q, want raw serial 45000", got.Rows[1][0])
	}
}

func TestReadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
