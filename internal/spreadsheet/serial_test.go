package spreadsheet

import "testing"

func TestSerialToDate(t *testing.T) {
	tests := []struct {
		serial float64
		want   string
	}{
		{45000, "2023-03-15"},
		{45000.75, "2023-03-15"},
		{25569, "1970-01-01"},
		{44927, "2023-01-01"},
	}
	for _, tt := range tests {
		if got := SerialToDate(tt.serial); got != tt.want {
			t.Fatalf("SerialToDate(%v) = %s, want %s", tt.serial, got, tt.want)
		}
	}
}

func TestParseDateCell(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"45000", "2023-03-15", true},
		{" 45000.5 ", "2023-03-15", true},
		{"2024-02-29", "2024-02-29", true},
		{"3/5/2024", "2024-03-05", true},
		{"2024-03-05T10:30:00", "2024-03-05", true},
		{"2024-03-05 10:30", "2024-03-05", true},
		{"", "", false},
		{"0", "", false},
		{"not a date", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDateCell(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("ParseDateCell(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
