package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

// ErrUnknownFamily is returned for a report family no pipeline handles.
var ErrUnknownFamily = errors.New("unknown report family")

// Pipeline turns the first sheet of one export into aggregates for its family.
type Pipeline interface {
	// Family returns the report family this pipeline ingests
	Family() domain.Family

	// Transform folds every data row of the sheet into a Batch
	Transform(ctx context.Context, sheet *spreadsheet.Sheet) (*Batch, error)
}

// Options tune how sheets are folded.
type Options struct {
	// Now stamps uploaded_at and dates turnaround rows in snapshot mode
	Now func() time.Time
	// RequireTurnaroundDate rejects turnaround exports without a date column
	RequireTurnaroundDate bool
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Stats describes how the rows of one file were consumed.
type Stats struct {
	RowsRead    int
	RowsSkipped int
	Warnings    []string
	DatingMode  string
}

// Batch is the output of one Transform. Exactly one of the record slices or
// documents is set, matching Family.
type Batch struct {
	Family domain.Family

	Production []*domain.ProductionRecord
	Turnaround []*domain.TurnaroundRecord
	Bypass     []*domain.BypassRecord
	Usage      []*domain.UsageRecord

	ProductUsage    *domain.ProductUsageDoc
	ProductWastage  *domain.ProductWastageDoc
	DetailedWastage *domain.DetailedWastageDoc
	StockDoses      *domain.StockDosesDoc

	Stats Stats
}

// Results fills the row counters and family totals of an ingest result.
// Added, Updated and TotalRecords are left for the store to fill.
func (b *Batch) Results() domain.IngestResults {
	res := domain.IngestResults{
		RowsRead:    b.Stats.RowsRead,
		RowsSkipped: b.Stats.RowsSkipped,
	}
	switch b.Family {
	case domain.FamilyProduction:
		for _, r := range b.Production {
			res.TotalDoses += r.TotalDoses
		}
	case domain.FamilyTurnaround:
		for _, r := range b.Turnaround {
			res.TotalDoses += r.TotalDoses
		}
	case domain.FamilyBypass:
		for _, r := range b.Bypass {
			res.TotalBypasses += r.TotalBypasses
		}
	case domain.FamilyUsage:
		for _, r := range b.Usage {
			res.TotalVolume += r.TotalVolume
		}
		res.TotalVolume = domain.Round2(res.TotalVolume)
	case domain.FamilyProductUsage:
		if b.ProductUsage != nil {
			res.TotalDoses = b.ProductUsage.Summary.TotalDoses
			res.TotalVolume = b.ProductUsage.Summary.TotalVolume
			res.TotalProducts = b.ProductUsage.Summary.ProductCount
			res.TotalRecords = len(b.ProductUsage.ByProduct)
		}
	case domain.FamilyProductWastage:
		if b.ProductWastage != nil {
			res.TotalProducts = b.ProductWastage.Summary.ProductCount
			res.TotalVolume = domain.Round2(b.ProductWastage.Summary.TotalUsedML + b.ProductWastage.Summary.TotalWasteML)
			res.TotalRecords = len(b.ProductWastage.Products)
		}
	case domain.FamilyDetailedWastage:
		if b.DetailedWastage != nil {
			res.TotalVolume = b.DetailedWastage.Summary.TotalVolume
			res.TotalProducts = len(b.DetailedWastage.ByProduct)
			res.TotalRecords = len(b.DetailedWastage.ByDate)
		}
	case domain.FamilyStockDoses:
		if b.StockDoses != nil {
			res.TotalDoses = b.StockDoses.Summary.Total
			res.TotalProducts = len(b.StockDoses.All)
			res.TotalRecords = len(b.StockDoses.All)
		}
	}
	return res
}

// RecordCount is the number of keyed records or document entries the batch carries.
func (b *Batch) RecordCount() int {
	switch b.Family {
	case domain.FamilyProduction:
		return len(b.Production)
	case domain.FamilyTurnaround:
		return len(b.Turnaround)
	case domain.FamilyBypass:
		return len(b.Bypass)
	case domain.FamilyUsage:
		return len(b.Usage)
	default:
		return b.Results().TotalRecords
	}
}
