package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/rxflow/internal/domain"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

// New returns the pipeline for a family.
func New(family domain.Family, opts Options) (Pipeline, error) {
	switch family {
	case domain.FamilyProduction:
		return &productionPipeline{opts: opts}, nil
	case domain.FamilyTurnaround:
		return &turnaroundPipeline{opts: opts}, nil
	case domain.FamilyBypass:
		return &bypassPipeline{opts: opts}, nil
	case domain.FamilyUsage:
		return &usagePipeline{opts: opts}, nil
	case domain.FamilyProductUsage:
		return &productUsagePipeline{opts: opts}, nil
	case domain.FamilyProductWastage:
		return &productWastagePipeline{opts: opts}, nil
	case domain.FamilyDetailedWastage:
		return &detailedWastagePipeline{opts: opts}, nil
	case domain.FamilyStockDoses:
		return &stockDosesPipeline{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// TransformFile reads the first sheet of path and folds it with the family pipeline.
func TransformFile(ctx context.Context, family domain.Family, opts Options, path string) (*Batch, error) {
	p, err := New(family, opts)
	if err != nil {
		return nil, err
	}
	sheet, err := spreadsheet.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Transform(ctx, sheet)
}

// filename hints, most specific first so "product_wastage" never matches "usage"
var familyHints = []struct {
	hint   string
	family domain.Family
}{
	{"detailedwastage", domain.FamilyDetailedWastage},
	{"productwastage", domain.FamilyProductWastage},
	{"productusage", domain.FamilyProductUsage},
	{"stockdose", domain.FamilyStockDoses},
	{"turnaround", domain.FamilyTurnaround},
	{"bypass", domain.FamilyBypass},
	{"production", domain.FamilyProduction},
	{"usage", domain.FamilyUsage},
}

var filenameSanitizer = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "")

// InferFamily guesses the report family from an export's file name.
func InferFamily(filename string) (domain.Family, error) {
	base := strings.ToLower(filepath.Base(filename))
	base = filenameSanitizer.Replace(strings.TrimSuffix(base, filepath.Ext(base)))
	for _, h := range familyHints {
		if strings.Contains(base, h.hint) {
			return h.family, nil
		}
	}
	return "", fmt.Errorf("%w: cannot infer family from %q", ErrUnknownFamily, filename)
}

func requireHeader(sheet *spreadsheet.Sheet, family domain.Family) ([]string, error) {
	header := sheet.Header()
	if len(header) == 0 || spreadsheet.IsBlank(header) {
		return nil, fmt.Errorf("%w: %s export is empty", spreadsheet.ErrSchemaMismatch, family)
	}
	return header, nil
}

// orderedKeys remembers first-occurrence order of natural keys.
type orderedKeys struct {
	seen map[string]struct{}
	keys []string
}

func (o *orderedKeys) add(key string) bool {
	if o.seen == nil {
		o.seen = make(map[string]struct{})
	}
	if _, ok := o.seen[key]; ok {
		return false
	}
	o.seen[key] = struct{}{}
	o.keys = append(o.keys, key)
	return true
}
