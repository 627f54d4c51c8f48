package pipeline

import (
	"context"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

// hourlyFold is the shared fold of the two hour-column families: column 0 holds
// the natural key and every hour column adds to that key's bucket.
type hourlyFold struct {
	keys   orderedKeys
	hourly map[string]domain.HourlyCounts
	stats  Stats
}

func foldHourly(ctx context.Context, sheet *spreadsheet.Sheet, sentinel string, key func(string) (string, bool)) (*hourlyFold, error) {
	cols, err := spreadsheet.HourColumns(sheet.Header(), sentinel)
	if err != nil {
		return nil, err
	}

	fold := &hourlyFold{hourly: make(map[string]domain.HourlyCounts)}
	var warnings spreadsheet.Warnings
	for i, row := range sheet.DataRows() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if spreadsheet.IsBlank(row) {
			continue
		}
		fold.stats.RowsRead++

		k, ok := key(spreadsheet.Cell(row, 0))
		if !ok {
			fold.stats.RowsSkipped++
			continue
		}
		if fold.keys.add(k) {
			fold.hourly[k] = make(domain.HourlyCounts)
		}
		bucket := fold.hourly[k]
		rowNum := i + 2
		for _, c := range cols {
			bucket[c.Hour] += warnings.Int(rowNum, c.Label, spreadsheet.Cell(row, c.Index))
		}
	}
	fold.stats.Warnings = warnings.List()
	return fold, nil
}

type productionPipeline struct {
	opts Options
}

func (p *productionPipeline) Family() domain.Family { return domain.FamilyProduction }

func (p *productionPipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	fold, err := foldHourly(ctx, sheet, "EntryDate", spreadsheet.ParseDateCell)
	if err != nil {
		return nil, err
	}

	now := p.opts.now()
	batch := &Batch{Family: domain.FamilyProduction, Stats: fold.stats}
	for _, date := range fold.keys.keys {
		hourly := fold.hourly[date]
		batch.Production = append(batch.Production, &domain.ProductionRecord{
			Date:       date,
			TotalDoses: hourly.Sum(),
			Hourly:     hourly,
			UploadedAt: now,
		})
	}
	return batch, nil
}

type bypassPipeline struct {
	opts Options
}

func (p *bypassPipeline) Family() domain.Family { return domain.FamilyBypass }

func (p *bypassPipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	fold, err := foldHourly(ctx, sheet, "Location", func(cell string) (string, bool) {
		return cell, cell != ""
	})
	if err != nil {
		return nil, err
	}

	now := p.opts.now()
	batch := &Batch{Family: domain.FamilyBypass, Stats: fold.stats}
	for _, location := range fold.keys.keys {
		hourly := fold.hourly[location]
		batch.Bypass = append(batch.Bypass, &domain.BypassRecord{
			Location:      location,
			TotalBypasses: hourly.Sum(),
			Hourly:        hourly,
			UploadedAt:    now,
		})
	}
	return batch, nil
}
