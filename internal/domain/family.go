package domain

import "strings"

// Family identifies one kind of report export and the collection or document it feeds.
type Family string

const (
	FamilyProduction      Family = "production"
	FamilyTurnaround      Family = "turnaround"
	FamilyBypass          Family = "bypass"
	FamilyUsage           Family = "usage"
	FamilyProductUsage    Family = "product-usage"
	FamilyProductWastage  Family = "product-wastage"
	FamilyDetailedWastage Family = "detailed-wastage"
	FamilyStockDoses      Family = "stock-doses"
)

// HistoryFamilies are the keyed collections that accumulate one record per natural key.
var HistoryFamilies = []Family{
	FamilyProduction,
	FamilyTurnaround,
	FamilyBypass,
	FamilyUsage,
}

// SnapshotFamilies are replaced whole on every upload.
var SnapshotFamilies = []Family{
	FamilyProductUsage,
	FamilyProductWastage,
	FamilyDetailedWastage,
	FamilyStockDoses,
}

var familyAliases = map[string]Family{
	"production":       FamilyProduction,
	"turnaround":       FamilyTurnaround,
	"bypass":           FamilyBypass,
	"usage":            FamilyUsage,
	"product-usage":    FamilyProductUsage,
	"product_usage":    FamilyProductUsage,
	"product-wastage":  FamilyProductWastage,
	"product_wastage":  FamilyProductWastage,
	"detailed-wastage": FamilyDetailedWastage,
	"detailed_wastage": FamilyDetailedWastage,
	"stock-doses":      FamilyStockDoses,
	"stock_doses":      FamilyStockDoses,
}

// ParseFamily returns the family for a label (case-insensitive, dash or underscore).
func ParseFamily(label string) (Family, bool) {
	f, ok := familyAliases[strings.ToLower(strings.TrimSpace(label))]
	return f, ok
}

// IsHistory reports whether the family is stored as a keyed collection.
func (f Family) IsHistory() bool {
	for _, h := range HistoryFamilies {
		if h == f {
			return true
		}
	}
	return false
}

func (f Family) String() string {
	return string(f)
}
