package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

var (
	nameAliases     = []string{"Name", "name", "Product", "product"}
	locationAliases = []string{"Location", "location"}
	doseAliases     = []string{"Doses", "doses", "Count", "count"}
	volumeAliases   = []string{"Volume", "volume", "Total Volume"}
	wasteAliases    = []string{"Waste", "waste", "Waste Volume"}
	typeAliases     = []string{"Type", "type", "Product Type"}
	usedMLAliases   = []string{"Used (ml)", "used_ml", "Used"}
	wasteMLAliases  = []string{"Waste (ml)", "waste_ml", "Waste"}
	categoryAliases = []string{"Type", "type", "Category", "category"}
	totalAliases    = []string{"Total", "total", "Doses", "doses"}
)

// scanRecords visits every record that carries a name.
func scanRecords(ctx context.Context, sheet *spreadsheet.Sheet, family domain.Family, visit func(rec spreadsheet.Record, name string, w *spreadsheet.Warnings)) (Stats, error) {
	var stats Stats
	if _, err := requireHeader(sheet, family); err != nil {
		return stats, err
	}
	var warnings spreadsheet.Warnings
	for _, rec := range sheet.Records() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.RowsRead++
		name := rec.Get(nameAliases...)
		if name == "" {
			stats.RowsSkipped++
			continue
		}
		visit(rec, name, &warnings)
	}
	stats.Warnings = warnings.List()
	return stats, nil
}

type productUsagePipeline struct {
	opts Options
}

func (p *productUsagePipeline) Family() domain.Family { return domain.FamilyProductUsage }

func (p *productUsagePipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	now := p.opts.now()
	doc := &domain.ProductUsageDoc{
		ByProduct:  make(map[string]domain.DoseVolume),
		ByLocation: make(map[string]domain.DoseVolume),
		UploadedAt: &now,
	}
	sum := &doc.Summary
	stats, err := scanRecords(ctx, sheet, domain.FamilyProductUsage, func(rec spreadsheet.Record, name string, w *spreadsheet.Warnings) {
		dv := domain.DoseVolume{
			Doses:  w.Int(rec.Row, "Doses", rec.Get(doseAliases...)),
			Volume: w.Float(rec.Row, "Volume", rec.Get(volumeAliases...)),
			Waste:  w.Float(rec.Row, "Waste", rec.Get(wasteAliases...)),
		}
		doc.ByProduct[name] = addDoseVolume(doc.ByProduct[name], dv)
		if location := rec.Get(locationAliases...); location != "" {
			doc.ByLocation[location] = addDoseVolume(doc.ByLocation[location], dv)
		}
		sum.TotalDoses += dv.Doses
		sum.TotalVolume += dv.Volume
		sum.TotalWaste += dv.Waste
	})
	if err != nil {
		return nil, err
	}

	sum.TotalVolume = domain.Round2(sum.TotalVolume)
	sum.TotalWaste = domain.Round2(sum.TotalWaste)
	sum.WastePercent = domain.WastePercent(sum.TotalWaste, sum.TotalVolume)
	sum.ProductCount = len(doc.ByProduct)
	sum.LocationCount = len(doc.ByLocation)
	return &Batch{Family: domain.FamilyProductUsage, ProductUsage: doc, Stats: stats}, nil
}

func addDoseVolume(a, b domain.DoseVolume) domain.DoseVolume {
	a.Doses += b.Doses
	a.Volume += b.Volume
	a.Waste += b.Waste
	return a
}

type productWastagePipeline struct {
	opts Options
}

func (p *productWastagePipeline) Family() domain.Family { return domain.FamilyProductWastage }

func (p *productWastagePipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	now := p.opts.now()
	doc := &domain.ProductWastageDoc{
		ByType:     make(map[string]domain.WastageByType),
		UploadedAt: &now,
	}
	sum := &doc.Summary
	stats, err := scanRecords(ctx, sheet, domain.FamilyProductWastage, func(rec spreadsheet.Record, name string, w *spreadsheet.Warnings) {
		item := domain.WastedProduct{
			Name:    name,
			Type:    domain.LabelOrUnknown(rec.Get(typeAliases...)),
			Count:   w.Int(rec.Row, "Count", rec.Get(doseAliases...)),
			UsedML:  w.Float(rec.Row, "Used (ml)", rec.Get(usedMLAliases...)),
			WasteML: w.Float(rec.Row, "Waste (ml)", rec.Get(wasteMLAliases...)),
		}
		item.WastePercent = domain.WastePercent(item.WasteML, item.UsedML+item.WasteML)
		doc.Products = append(doc.Products, item)

		t := doc.ByType[item.Type]
		t.Count += item.Count
		t.UsedML += item.UsedML
		t.WasteML += item.WasteML
		doc.ByType[item.Type] = t

		sum.TotalUsedML += item.UsedML
		sum.TotalWasteML += item.WasteML
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(doc.Products, func(i, j int) bool {
		return doc.Products[i].WasteML > doc.Products[j].WasteML
	})
	if doc.Products == nil {
		doc.Products = []domain.WastedProduct{}
	}
	sum.TotalUsedML = domain.Round2(sum.TotalUsedML)
	sum.TotalWasteML = domain.Round2(sum.TotalWasteML)
	sum.WastePercent = domain.WastePercent(sum.TotalWasteML, sum.TotalUsedML+sum.TotalWasteML)
	sum.ProductCount = len(doc.Products)
	return &Batch{Family: domain.FamilyProductWastage, ProductWastage: doc, Stats: stats}, nil
}

type stockDosesPipeline struct {
	opts Options
}

func (p *stockDosesPipeline) Family() domain.Family { return domain.FamilyStockDoses }

// Transform sums doses per name within each category. Rows repeating a name
// add to the first occurrence.
func (p *stockDosesPipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	var (
		keys   orderedKeys
		totals = make(map[string]*domain.StockDose)
	)
	stats, err := scanRecords(ctx, sheet, domain.FamilyStockDoses, func(rec spreadsheet.Record, name string, w *spreadsheet.Warnings) {
		category := domain.StockCategory
		if strings.Contains(strings.ToLower(rec.Get(categoryAliases...)), domain.DilutionCategory) {
			category = domain.DilutionCategory
		}
		key := category + "\x00" + name
		if keys.add(key) {
			totals[key] = &domain.StockDose{Name: name, Category: category}
		}
		totals[key].Total += w.Int(rec.Row, "Total", rec.Get(totalAliases...))
	})
	if err != nil {
		return nil, err
	}

	now := p.opts.now()
	doc := &domain.StockDosesDoc{
		Stocks:     []domain.StockDose{},
		Dilutions:  []domain.StockDose{},
		All:        []domain.StockDose{},
		UploadedAt: &now,
	}
	sum := &doc.Summary
	for _, key := range keys.keys {
		dose := *totals[key]
		if dose.Category == domain.DilutionCategory {
			doc.Dilutions = append(doc.Dilutions, dose)
			sum.DilutionTotal += dose.Total
		} else {
			doc.Stocks = append(doc.Stocks, dose)
			sum.StockTotal += dose.Total
		}
		doc.All = append(doc.All, dose)
	}
	SortStockDoses(doc.Stocks)
	SortStockDoses(doc.Dilutions)
	SortStockDoses(doc.All)
	sum.Total = sum.StockTotal + sum.DilutionTotal
	sum.StockCount = len(doc.Stocks)
	sum.DilutionCount = len(doc.Dilutions)
	return &Batch{Family: domain.FamilyStockDoses, StockDoses: doc, Stats: stats}, nil
}

// SortStockDoses orders doses by total descending, then by name.
func SortStockDoses(doses []domain.StockDose) {
	sort.SliceStable(doses, func(i, j int) bool {
		if doses[i].Total != doses[j].Total {
			return doses[i].Total > doses[j].Total
		}
		return doses[i].Name < doses[j].Name
	})
}
