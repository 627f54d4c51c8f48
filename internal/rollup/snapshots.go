package rollup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/andresuchdata/rxflow/internal/domain"
)

// Stock dose list types.
const (
	StockListStocks    = "stocks"
	StockListDilutions = "dilutions"
	StockListAll       = "all"
)

func ProductUsageSummaryOf(doc *domain.ProductUsageDoc) domain.ProductUsageSummary {
	if doc == nil {
		return domain.ProductUsageSummary{}
	}
	return doc.Summary
}

// ProductUsageProducts lists products by volume descending.
func ProductUsageProducts(doc *domain.ProductUsageDoc, limit int) []domain.ProductUsageRollup {
	if doc == nil {
		return []domain.ProductUsageRollup{}
	}
	return doseVolumeRollups(doc.ByProduct, limit)
}

// ProductUsageLocations lists locations by volume descending.
func ProductUsageLocations(doc *domain.ProductUsageDoc, limit int) []domain.ProductUsageRollup {
	if doc == nil {
		return []domain.ProductUsageRollup{}
	}
	return doseVolumeRollups(doc.ByLocation, limit)
}

func doseVolumeRollups(src map[string]domain.DoseVolume, limit int) []domain.ProductUsageRollup {
	out := make([]domain.ProductUsageRollup, 0, len(src))
	for name, dv := range src {
		out = append(out, domain.ProductUsageRollup{
			Name:         name,
			Doses:        dv.Doses,
			Volume:       domain.Round2(dv.Volume),
			Waste:        domain.Round2(dv.Waste),
			WastePercent: domain.WastePercent(dv.Waste, dv.Volume),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		if out[i].Doses != out[j].Doses {
			return out[i].Doses > out[j].Doses
		}
		return out[i].Name < out[j].Name
	})
	return truncate(out, limit)
}

// WastageProducts keeps the stored waste_ml order. typ filters by product type
// (case-insensitive); empty or "all" keeps every product.
func WastageProducts(doc *domain.ProductWastageDoc, typ string, limit int) []domain.WastedProduct {
	out := []domain.WastedProduct{}
	if doc == nil {
		return out
	}
	typ = strings.TrimSpace(typ)
	for _, p := range doc.Products {
		if typ == "" || strings.EqualFold(typ, "all") || strings.EqualFold(p.Type, typ) {
			out = append(out, p)
		}
	}
	return truncate(out, limit)
}

// WastageTypes lists product types by waste descending.
func WastageTypes(doc *domain.ProductWastageDoc) []domain.WastageTypeRollup {
	out := []domain.WastageTypeRollup{}
	if doc == nil {
		return out
	}
	for typ, t := range doc.ByType {
		out = append(out, domain.WastageTypeRollup{
			Type:         typ,
			Count:        t.Count,
			UsedML:       domain.Round2(t.UsedML),
			WasteML:      domain.Round2(t.WasteML),
			WastePercent: domain.WastePercent(t.WasteML, t.UsedML+t.WasteML),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WasteML != out[j].WasteML {
			return out[i].WasteML > out[j].WasteML
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func WastageSummaryOf(doc *domain.ProductWastageDoc) domain.ProductWastageSummary {
	if doc == nil {
		return domain.ProductWastageSummary{}
	}
	return doc.Summary
}

// DetailedDaily returns the by-date entries oldest first. The document is a
// single export, so no window applies.
func DetailedDaily(doc *domain.DetailedWastageDoc) []domain.DailyWastagePoint {
	out := []domain.DailyWastagePoint{}
	if doc == nil {
		return out
	}
	for date, d := range doc.ByDate {
		out = append(out, domain.DailyWastagePoint{
			Date:           date,
			Total:          domain.Round2(d.Total),
			Used:           domain.Round2(d.Used),
			Waste:          domain.Round2(d.Waste),
			WastePercent:   domain.WastePercent(d.Waste, d.Total),
			MultiDoseCount: d.MultiDoseCount,
			StockCount:     d.StockCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DetailedBreakdown lists products or locations by total volume descending.
func DetailedBreakdown(doc *domain.DetailedWastageDoc, dimension string, limit int) ([]domain.VolumeRollup, error) {
	if dimension == "" {
		dimension = DimensionProduct
	}
	if dimension != DimensionProduct && dimension != DimensionLocation {
		return nil, fmt.Errorf("%w: wastage dimension %q", ErrInvalidQuery, dimension)
	}
	if doc == nil {
		return []domain.VolumeRollup{}, nil
	}
	src := doc.ByProduct
	if dimension == DimensionLocation {
		src = doc.ByLocation
	}
	folded := make(domain.VolumeBreakdown, len(src))
	for label, s := range src {
		folded.Add(label, domain.VolumeStat{Count: s.Count, Total: s.Total, Used: s.Total - s.Waste, Waste: s.Waste})
	}
	return volumeRollups(folded, limit), nil
}

func DetailedSummaryOf(doc *domain.DetailedWastageDoc) domain.DetailedWastageSummary {
	if doc == nil {
		return domain.DetailedWastageSummary{}
	}
	return doc.Summary
}

// StockDoseList returns stocks, dilutions or both, largest total first.
func StockDoseList(doc *domain.StockDosesDoc, typ string, limit int) ([]domain.StockDose, error) {
	if typ == "" {
		typ = StockListAll
	}
	var src []domain.StockDose
	switch strings.ToLower(typ) {
	case StockListStocks:
		if doc != nil {
			src = doc.Stocks
		}
	case StockListDilutions:
		if doc != nil {
			src = doc.Dilutions
		}
	case StockListAll:
		if doc != nil {
			src = doc.All
		}
	default:
		return nil, fmt.Errorf("%w: stock dose type %q", ErrInvalidQuery, typ)
	}
	out := make([]domain.StockDose, len(src))
	copy(out, src)
	return truncate(out, limit), nil
}

func StockDoseSummaryOf(doc *domain.StockDosesDoc) domain.StockDosesSummary {
	if doc == nil {
		return domain.StockDosesSummary{}
	}
	return doc.Summary
}
