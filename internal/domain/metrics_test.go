package domain

import "testing"

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{2.25, 2.3},
		{2.24, 2.2},
		{30, 30},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Fatalf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWastePercent(t *testing.T) {
	if got := WastePercent(3, 10); got != 30.0 {
		t.Fatalf("WastePercent(3, 10) = %v, want 30", got)
	}
	if got := WastePercent(1, 3); got != 33.3 {
		t.Fatalf("WastePercent(1, 3) = %v, want 33.3", got)
	}
	if got := WastePercent(5, 0); got != 0 {
		t.Fatalf("WastePercent with zero total = %v, want 0", got)
	}
}

func TestAverage(t *testing.T) {
	if got := Average(25, 2); got != 12.5 {
		t.Fatalf("Average(25, 2) = %v", got)
	}
	if got := Average(10, 3); got != 3.3 {
		t.Fatalf("Average(10, 3) = %v", got)
	}
	if got := Average(10, 0); got != 0 {
		t.Fatalf("Average with zero count = %v", got)
	}
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in   string
		want Family
		ok   bool
	}{
		{"production", FamilyProduction, true},
		{" Stock_Doses ", FamilyStockDoses, true},
		{"detailed-wastage", FamilyDetailedWastage, true},
		{"inventory", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseFamily(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseFamily(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if !FamilyBypass.IsHistory() || FamilyProductUsage.IsHistory() {
		t.Fatal("IsHistory misclassified a family")
	}
}

func TestHourlyCounts(t *testing.T) {
	h := HourlyCounts{8: 5}
	h.Merge(HourlyCounts{8: 1, 9: 7})
	if h[8] != 6 || h[9] != 7 || h.Sum() != 13 {
		t.Fatalf("unexpected merge result %v", h)
	}
}
