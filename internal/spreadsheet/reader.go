package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for files that are neither a workbook nor CSV.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSchemaMismatch is returned when a mandatory header or structure is missing.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Sheet is the first worksheet of an export, one string slice per row.
// Numeric cells keep their raw value so date serials survive cell formatting.
type Sheet struct {
	Name string
	Rows [][]string
}

// Header returns row 0, or nil for an empty sheet.
func (s *Sheet) Header() []string {
	if s == nil || len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRows returns every row after the header.
func (s *Sheet) DataRows() [][]string {
	if s == nil || len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// Cell returns the trimmed value at idx, or "" when idx is absent or out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// IsBlank reports whether every cell of the row is empty.
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadFile loads the first worksheet of an .xlsx/.xlsm workbook or a .csv file.
func ReadFile(path string) (*Sheet, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
		}
		defer f.Close()
		return readWorkbook(f)
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
		}
		defer file.Close()
		return ReadCSV(file, filepath.Base(path))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadXLSX reads the first worksheet of a workbook stream.
func ReadXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx stream: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Sheet, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSchemaMismatch)
	}
	name := sheets[0]

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", name, err)
	}
	defer rows.Close()

	sheet := &Sheet{Name: name}
	for rows.Next() {
		record, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", name, err)
		}
		sheet.Rows = append(sheet.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", name, err)
	}

	return sheet, nil
}

// ReadCSV reads a CSV export. Ragged rows are accepted.
func ReadCSV(r io.Reader, name string) (*Sheet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	sheet := &Sheet{Name: name}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		sheet.Rows = append(sheet.Rows, record)
	}
	if len(sheet.Rows) > 0 {
		sheet.Rows[0] = stripBOM(sheet.Rows[0])
	}
	return sheet, nil
}

func stripBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header
}
