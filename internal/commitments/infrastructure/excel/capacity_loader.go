package excel

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	commitments "energy-commitments/internal/commitments/domain"
)

const (
	// DefaultSkipRows is the size of the header block above the table.
	DefaultSkipRows = 5

	DefaultCodeColumn     = "CODIGO"
	DefaultCapacityColumn = "CAPACIDAD (Kwh)"
	DefaultDateColumn     = "FECHA"
)

// CapacityLoader reads declared capacity workbooks.
type CapacityLoader struct {
	skipRows       int
	sheet          string
	codeColumn     string
	capacityColumn string
	dateColumn     string
}

// LoaderOption configures the loader.
type LoaderOption func(*CapacityLoader)

// WithSkipRows overrides the number of header rows to skip.
func WithSkipRows(rows int) LoaderOption {
	return func(loader *CapacityLoader) {
		if loader != nil && rows >= 0 {
			loader.skipRows = rows
		}
	}
}

// WithSheet reads the named sheet instead of the first one.
func WithSheet(sheet string) LoaderOption {
	return func(loader *CapacityLoader) {
		if loader != nil && sheet != "" {
			loader.sheet = sheet
		}
	}
}

// WithColumns overrides the plant code, capacity and date header names.
func WithColumns(code, capacity, date string) LoaderOption {
	return func(loader *CapacityLoader) {
		if loader == nil {
			return
		}
		if code != "" {
			loader.codeColumn = code
		}
		if capacity != "" {
			loader.capacityColumn = capacity
		}
		if date != "" {
			loader.dateColumn = date
		}
	}
}

// NewCapacityLoader constructs a loader.
func NewCapacityLoader(opts ...LoaderOption) *CapacityLoader {
	loader := &CapacityLoader{
		skipRows:       DefaultSkipRows,
		codeColumn:     DefaultCodeColumn,
		capacityColumn: DefaultCapacityColumn,
		dateColumn:     DefaultDateColumn,
	}
	for _, opt := range opts {
		opt(loader)
	}
	return loader
}

// Load parses the workbook into capacity records. Rows are not filtered.
func (l *CapacityLoader) Load(ctx context.Context, r io.Reader) ([]commitments.CapacityRecord, error) {
	_ = ctx
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", commitments.ErrParse)
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commitments.ErrParse, err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: workbook has no sheets", commitments.ErrParse)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commitments.ErrParse, err)
	}
	if len(rows) <= l.skipRows {
		return nil, fmt.Errorf("%w: missing header row after %d skipped rows", commitments.ErrParse, l.skipRows)
	}

	header := rows[l.skipRows]
	codeIdx, capacityIdx, dateIdx, err := l.locateColumns(header)
	if err != nil {
		return nil, err
	}
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	records := make([]commitments.CapacityRecord, 0, len(rows)-l.skipRows-1)
	for _, row := range rows[l.skipRows+1:] {
		attrs := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			attrs[strings.TrimSpace(name)] = row[i]
		}
		records = append(records, commitments.CapacityRecord{
			PlantCode:  strings.TrimSpace(cell(row, codeIdx)),
			Capacity:   cell(row, capacityIdx),
			Date:       resolveDate(cell(row, dateIdx), date1904),
			Attributes: attrs,
		})
	}
	return records, nil
}

func (l *CapacityLoader) locateColumns(header []string) (int, int, int, error) {
	codeIdx, capacityIdx, dateIdx := -1, -1, -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch {
		case strings.EqualFold(name, l.codeColumn):
			codeIdx = i
		case strings.EqualFold(name, l.capacityColumn):
			capacityIdx = i
		case strings.EqualFold(name, l.dateColumn):
			dateIdx = i
		}
	}
	var missing []string
	if codeIdx < 0 {
		missing = append(missing, l.codeColumn)
	}
	if capacityIdx < 0 {
		missing = append(missing, l.capacityColumn)
	}
	if dateIdx < 0 {
		missing = append(missing, l.dateColumn)
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: missing columns %s", commitments.ErrParse, strings.Join(missing, ", "))
	}
	return codeIdx, capacityIdx, dateIdx, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// resolveDate converts Excel serial dates to time values; other text is
// returned as-is for the date enricher to parse.
func resolveDate(raw string, date1904 bool) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	at, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return raw
	}
	return at
}

// IsWorkbookName reports whether a file name has a spreadsheet extension.
func IsWorkbookName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}
