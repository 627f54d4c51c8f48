package spreadsheet

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"", 0, true},
		{"  ", 0, true},
		{"12", 12, true},
		{"1,250.5", 1250.5, true},
		{"1,234,567", 1234567, true},
		{"-12,000", -12000, true},
		{"1 250", 1250, true},
		{"1,5", 0, false},
		{"1.234,5", 0, false},
		{"12,34", 0, false},
		{",100", 0, false},
		{"-3", -3, true},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseNumber(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestWarningsFlagDecimalComma(t *testing.T) {
	var w Warnings
	if got := w.Float(4, "Waste Volume", "1,5"); got != 0 {
		t.Fatalf("decimal comma parsed as %v", got)
	}
	if w.Count() != 1 || !strings.Contains(w.List()[0], `"1,5"`) {
		t.Fatalf("expected one warning naming the cell, got %v", w.List())
	}
}

func TestWarningsCap(t *testing.T) {
	var w Warnings
	for i := 0; i < MaxWarnings+7; i++ {
		w.Float(i+2, "Volume", fmt.Sprintf("bad%d", i))
	}
	if w.Count() != MaxWarnings+7 {
		t.Fatalf("Count = %d, want %d", w.Count(), MaxWarnings+7)
	}
	list := w.List()
	if len(list) != MaxWarnings+1 {
		t.Fatalf("List length = %d, want %d", len(list), MaxWarnings+1)
	}
	if last := list[len(list)-1]; last != "... and 7 more" {
		t.Fatalf("trailing note = %q", last)
	}
}

func TestWarningsIgnoreEmptyCells(t *testing.T) {
	var w Warnings
	if v := w.Int(2, "8:00", ""); v != 0 {
		t.Fatalf("empty cell = %d, want 0", v)
	}
	if v := w.Int(2, "9:00", "4.6"); v != 5 {
		t.Fatalf("rounded cell = %d, want 5", v)
	}
	if w.Count() != 0 {
		t.Fatalf("expected no warnings, got %v", w.List())
	}
}
