package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

var (
	usageDateCols     = []string{"Date", "EntryDate"}
	usageProductCols  = []string{"Product Name", "Product"}
	usageLocationCols = []string{"Location"}
	usageTotalCols    = []string{"Product Total Volume"}
	usageUnusedCols   = []string{"Product Unused Volume"}
	usageDoseTypeCols = []string{"Dose Type", "Type"}
)

// volumeRow is one parsed row of a volume export.
type volumeRow struct {
	date     string
	product  string
	location string
	doseType string
	total    float64
	unused   float64
}

func (r volumeRow) used() float64 { return r.total - r.unused }

// scanVolumeRows walks a usage-shaped export. Rows without a date or a product
// are skipped.
func scanVolumeRows(ctx context.Context, sheet *spreadsheet.Sheet, family domain.Family, visit func(volumeRow)) (Stats, error) {
	var stats Stats
	header, err := requireHeader(sheet, family)
	if err != nil {
		return stats, err
	}

	var (
		dateIdx     = spreadsheet.ColumnIndex(header, usageDateCols...)
		productIdx  = spreadsheet.ColumnIndex(header, usageProductCols...)
		locationIdx = spreadsheet.ColumnIndex(header, usageLocationCols...)
		totalIdx    = spreadsheet.ColumnIndex(header, usageTotalCols...)
		unusedIdx   = spreadsheet.ColumnIndex(header, usageUnusedCols...)
		typeIdx     = spreadsheet.ColumnIndex(header, usageDoseTypeCols...)
	)
	if dateIdx < 0 || productIdx < 0 {
		return stats, fmt.Errorf("%w: %s export needs a date column (%s) and a product column (%s)",
			spreadsheet.ErrSchemaMismatch, family,
			strings.Join(usageDateCols, "|"), strings.Join(usageProductCols, "|"))
	}

	var warnings spreadsheet.Warnings
	for i, row := range sheet.DataRows() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if spreadsheet.IsBlank(row) {
			continue
		}
		stats.RowsRead++

		date, ok := spreadsheet.ParseDateCell(spreadsheet.Cell(row, dateIdx))
		product := spreadsheet.Cell(row, productIdx)
		if !ok || product == "" {
			stats.RowsSkipped++
			continue
		}
		rowNum := i + 2
		visit(volumeRow{
			date:     date,
			product:  product,
			location: domain.LabelOrUnknown(spreadsheet.Cell(row, locationIdx)),
			doseType: spreadsheet.Cell(row, typeIdx),
			total:    warnings.Float(rowNum, usageTotalCols[0], spreadsheet.Cell(row, totalIdx)),
			unused:   warnings.Float(rowNum, usageUnusedCols[0], spreadsheet.Cell(row, unusedIdx)),
		})
	}
	stats.Warnings = warnings.List()
	return stats, nil
}

type usagePipeline struct {
	opts Options
}

func (p *usagePipeline) Family() domain.Family { return domain.FamilyUsage }

func (p *usagePipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	now := p.opts.now()
	var (
		keys     orderedKeys
		buckets  = make(map[string]*domain.UsageRecord)
		products = make(map[string]map[string]struct{})
	)
	stats, err := scanVolumeRows(ctx, sheet, domain.FamilyUsage, func(r volumeRow) {
		if keys.add(r.date) {
			buckets[r.date] = &domain.UsageRecord{
				Date:       r.date,
				ByProduct:  make(domain.VolumeBreakdown),
				ByLocation: make(domain.VolumeBreakdown),
				UploadedAt: now,
			}
			products[r.date] = make(map[string]struct{})
		}
		rec := buckets[r.date]
		stat := domain.VolumeStat{Count: 1, Total: r.total, Used: r.used(), Waste: r.unused}
		rec.TotalVolume += stat.Total
		rec.UsedVolume += stat.Used
		rec.WasteVolume += stat.Waste
		rec.ByProduct.Add(r.product, stat)
		rec.ByLocation.Add(r.location, stat)
		products[r.date][r.product] = struct{}{}
	})
	if err != nil {
		return nil, err
	}

	batch := &Batch{Family: domain.FamilyUsage, Stats: stats}
	for _, date := range keys.keys {
		rec := buckets[date]
		rec.TotalVolume = domain.Round2(rec.TotalVolume)
		rec.UsedVolume = domain.Round2(rec.UsedVolume)
		rec.WasteVolume = domain.Round2(rec.WasteVolume)
		rec.WastePercent = domain.WastePercent(rec.WasteVolume, rec.TotalVolume)
		rec.ProductCount = len(products[date])
		batch.Usage = append(batch.Usage, rec)
	}
	return batch, nil
}

type detailedWastagePipeline struct {
	opts Options
}

func (p *detailedWastagePipeline) Family() domain.Family { return domain.FamilyDetailedWastage }

func (p *detailedWastagePipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	now := p.opts.now()
	doc := &domain.DetailedWastageDoc{
		ByDate:     make(map[string]domain.DailyWastage),
		ByProduct:  make(map[string]domain.WasteStat),
		ByLocation: make(map[string]domain.WasteStat),
		UploadedAt: &now,
	}
	sum := &doc.Summary
	stats, err := scanVolumeRows(ctx, sheet, domain.FamilyDetailedWastage, func(r volumeRow) {
		day := doc.ByDate[r.date]
		day.Total += r.total
		day.Used += r.used()
		day.Waste += r.unused

		doseType := strings.ToLower(r.doseType)
		if strings.Contains(doseType, "multi") {
			day.MultiDoseCount++
			sum.MultiDoseCount++
		}
		if strings.Contains(doseType, "stock") {
			day.StockCount++
			sum.StockCount++
		}
		doc.ByDate[r.date] = day

		doc.ByProduct[r.product] = addWaste(doc.ByProduct[r.product], r)
		doc.ByLocation[r.location] = addWaste(doc.ByLocation[r.location], r)

		sum.TotalVolume += r.total
		sum.WasteVolume += r.unused
		if sum.StartDate == "" || r.date < sum.StartDate {
			sum.StartDate = r.date
		}
		if r.date > sum.EndDate {
			sum.EndDate = r.date
		}
	})
	if err != nil {
		return nil, err
	}

	sum.TotalVolume = domain.Round2(sum.TotalVolume)
	sum.WasteVolume = domain.Round2(sum.WasteVolume)
	sum.WastePercent = domain.WastePercent(sum.WasteVolume, sum.TotalVolume)
	return &Batch{Family: domain.FamilyDetailedWastage, DetailedWastage: doc, Stats: stats}, nil
}

func addWaste(s domain.WasteStat, r volumeRow) domain.WasteStat {
	s.Count++
	s.Total += r.total
	s.Waste += r.unused
	return s
}
