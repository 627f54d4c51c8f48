package spreadsheet

import (
	"errors"
	"strings"
	"testing"
)

func TestHourColumns(t *testing.T) {
	header := []string{"EntryDate", "8:00", " 9:00 ", "Total", "24:00", "23:30", "7"}
	cols, err := HourColumns(header, "EntryDate")
	if err != nil {
		t.Fatalf("HourColumns: %v", err)
	}
	want := []HourColumn{
		{Index: 1, Hour: 8, Label: "8:00"},
		{Index: 2, Hour: 9, Label: "9:00"},
		{Index: 5, Hour: 23, Label: "23:30"},
	}
	if len(cols) != len(want) {
		t.Fatalf("got %d hour columns, want %d: %+v", len(cols), len(want), cols)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("column %d = %+v, want %+v", i, cols[i], want[i])
		}
	}
}

func TestHourColumnsSentinelMismatch(t *testing.T) {
	_, err := HourColumns([]string{"Date", "8:00"}, "EntryDate")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "EntryDate") {
		t.Fatalf("error should name the expected header: %v", err)
	}

	if _, err := HourColumns(nil, "Location"); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for empty header, got %v", err)
	}
}

func TestColumnIndex(t *testing.T) {
	header := []string{"Product Name", "product_total_volume", "Location", "Location "}
	if got := ColumnIndex(header, "Location"); got != 2 {
		t.Fatalf("exact match index = %d, want 2", got)
	}
	if got := ColumnIndex(header, "Product Total Volume"); got != 1 {
		t.Fatalf("normalized match index = %d, want 1", got)
	}
	if got := ColumnIndex(header, "Product", "Product Name"); got != 0 {
		t.Fatalf("alias match index = %d, want 0", got)
	}
	if got := ColumnIndex(header, "Dose Type"); got != -1 {
		t.Fatalf("missing column index = %d, want -1", got)
	}
}

func TestRecords(t *testing.T) {
	sheet := &Sheet{Rows: [][]string{
		{"Name", "Total Volume", "waste"},
		{"Drug A", "10", ""},
		{"", "", ""},
		{"", "4", "1"},
	}}
	recs := sheet.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Row != 2 || recs[1].Row != 4 {
		t.Fatalf("unexpected row numbers %d, %d", recs[0].Row, recs[1].Row)
	}
	if got := recs[0].Get("name", "Name"); got != "Drug A" {
		t.Fatalf("Get(name, Name) = %q", got)
	}
	if got := recs[0].Get("Volume", "total_volume"); got != "10" {
		t.Fatalf("normalized Get = %q, want 10", got)
	}
	if got := recs[1].Get("Name", "Product"); got != "" {
		t.Fatalf("empty alias value = %q, want empty", got)
	}
	if !recs[0].Has("Waste") || recs[0].Has("Location") {
		t.Fatal("Has reported wrong column presence")
	}
}
