package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

var (
	turnaroundPriorityCols    = []string{"Priority"}
	turnaroundWorkstationCols = []string{"Workstation"}
	turnaroundDrugCols        = []string{"Drug", "Drug Name", "Medication"}
	turnaroundStatusCols      = []string{"Status"}
	turnaroundTimeCols        = []string{"Turnaround Time", "Turnaround", "TAT", "Turnaround (min)"}
	turnaroundDateCols        = []string{"Date", "EntryDate", "Completed Date", "Completed"}
)

const completedStatus = "completed"

type turnaroundPipeline struct {
	opts Options
}

func (p *turnaroundPipeline) Family() domain.Family { return domain.FamilyTurnaround }

// Transform keys rows by their own date when the export has a date column.
// Without one, every row lands on the upload day and the batch is flagged as a
// snapshot so the caller can tell a history record from a point-in-time export.
func (p *turnaroundPipeline) Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error) {
	header, err := requireHeader(sheet, domain.FamilyTurnaround)
	if err != nil {
		return nil, err
	}

	var (
		priorityIdx    = spreadsheet.ColumnIndex(header, turnaroundPriorityCols...)
		workstationIdx = spreadsheet.ColumnIndex(header, turnaroundWorkstationCols...)
		drugIdx        = spreadsheet.ColumnIndex(header, turnaroundDrugCols...)
		statusIdx      = spreadsheet.ColumnIndex(header, turnaroundStatusCols...)
		timeIdx        = spreadsheet.ColumnIndex(header, turnaroundTimeCols...)
		dateIdx        = spreadsheet.ColumnIndex(header, turnaroundDateCols...)
	)

	now := p.opts.now()
	var warnings spreadsheet.Warnings
	mode := domain.DatingPerRow
	uploadDay := now.Format("2006-01-02")
	if dateIdx < 0 {
		if p.opts.RequireTurnaroundDate {
			return nil, fmt.Errorf("%w: turnaround export has no date column (expected one of %s)",
				spreadsheet.ErrSchemaMismatch, strings.Join(turnaroundDateCols, ", "))
		}
		mode = domain.DatingSnapshot
		warnings.Addf("no date column found; all rows dated %s (snapshot mode)", uploadDay)
	}
	if timeIdx < 0 {
		warnings.Addf("no turnaround time column found; times counted as 0")
	}
	timeLabel := "Turnaround Time"
	if timeIdx >= 0 {
		timeLabel = strings.TrimSpace(header[timeIdx])
	}

	var (
		keys    orderedKeys
		buckets = make(map[string]*domain.TurnaroundRecord)
		stats   Stats
	)
	for i, row := range sheet.DataRows() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if spreadsheet.IsBlank(row) {
			continue
		}
		stats.RowsRead++

		if statusIdx >= 0 && !strings.EqualFold(spreadsheet.Cell(row, statusIdx), completedStatus) {
			stats.RowsSkipped++
			continue
		}

		date := uploadDay
		if mode == domain.DatingPerRow {
			d, ok := spreadsheet.ParseDateCell(spreadsheet.Cell(row, dateIdx))
			if !ok {
				stats.RowsSkipped++
				continue
			}
			date = d
		}

		tat := warnings.Float(i+2, timeLabel, spreadsheet.Cell(row, timeIdx))

		if keys.add(date) {
			buckets[date] = &domain.TurnaroundRecord{
				Date:          date,
				ByPriority:    make(domain.TimingBreakdown),
				ByWorkstation: make(domain.TimingBreakdown),
				ByDrug:        make(domain.TimingBreakdown),
				DatingMode:    mode,
				UploadedAt:    now,
			}
		}
		rec := buckets[date]
		rec.TotalDoses++
		rec.TotalTime += tat
		rec.ByPriority.Add(domain.LabelOrUnknown(spreadsheet.Cell(row, priorityIdx)), 1, tat)
		rec.ByWorkstation.Add(domain.LabelOrUnknown(spreadsheet.Cell(row, workstationIdx)), 1, tat)
		rec.ByDrug.Add(domain.LabelOrUnknown(spreadsheet.Cell(row, drugIdx)), 1, tat)
	}

	stats.Warnings = warnings.List()
	stats.DatingMode = mode
	batch := &Batch{Family: domain.FamilyTurnaround, Stats: stats}
	for _, date := range keys.keys {
		rec := buckets[date]
		rec.TotalTime = domain.Round2(rec.TotalTime)
		rec.AvgTurnaround = domain.Average(rec.TotalTime, rec.TotalDoses)
		batch.Turnaround = append(batch.Turnaround, rec)
	}
	return batch, nil
}
