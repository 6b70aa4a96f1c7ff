package dataprocessing

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"autobill/internal/billing"
	"autobill/pkg/contracts/domain"
)

// headerSearchRows bounds how far down the sheet the header row may sit.
const headerSearchRows = 10

// timeLayouts are tried in order for util_time cells stored as text.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

// Parser reads GGSN and IX workbooks.
type Parser struct {
	logger   *slog.Logger
	location *time.Location
}

// NewParser creates a parser. Text timestamps without a zone are read in loc
// (UTC when nil).
func NewParser(logger *slog.Logger, loc *time.Location) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{
		logger:   logger.With(slog.String("component", "parser")),
		location: loc,
	}
}

// ParseFile opens path and parses it as a workbook of the given kind.
func (p *Parser) ParseFile(path string, kind domain.SourceKind) (*domain.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IngestionError{File: filepath.Base(path), Err: fmt.Errorf("failed to read file: %w", err)}
	}
	return p.Parse(bytes.NewReader(data), filepath.Base(path), kind)
}

// Parse reads the first sheet of the workbook in r.
//
// The header row is the first row, within the first few, that names every
// required column of kind. Header matching ignores case and surrounding
// spaces; cell values are kept verbatim.
func (p *Parser) Parse(r io.Reader, name string, kind domain.SourceKind) (*domain.Dataset, error) {
	schema, err := billing.SchemaFor(kind)
	if err != nil {
		return nil, &IngestionError{File: name, Err: err}
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &IngestionError{File: name, Err: fmt.Errorf("failed to open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &IngestionError{File: name, Err: ErrNoData}
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &IngestionError{File: name, Err: fmt.Errorf("failed to read sheet %q: %w", sheetName, err)}
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	headerRow, columnMap, err := findHeader(rows, schema.RequiredColumns())
	if err != nil {
		return nil, &IngestionError{File: name, Column: err.Error(), Err: ErrMissingColumn}
	}

	p.logger.Debug("header located",
		slog.String("file", name),
		slog.String("sheet", sheetName),
		slog.Int("header_row", headerRow+1),
		slog.Any("columns", columnMap))

	columns := make([]string, len(rows[headerRow]))
	for i, h := range rows[headerRow] {
		columns[i] = strings.TrimSpace(h)
	}

	ds := &domain.Dataset{
		Kind:    kind,
		Source:  name,
		Columns: columns,
	}

	for i := headerRow + 1; i < len(rows); i++ {
		raw := rows[i]
		if isBlank(raw) {
			continue
		}
		sheetRow := i + 1

		cells := make([]string, len(columns))
		copy(cells, raw)

		cell := func(col string) string {
			return cells[columnMap[col]]
		}

		row := domain.Row{
			Kind:   kind,
			Fields: make(map[string]*string, 2),
			Cells:  cells,
		}
		for _, col := range schema.KeyColumns {
			if v := cell(col); v != "" {
				v := v
				row.Fields[col] = &v
			}
		}

		if row.MaxIn, err = parseNumber(cell(domain.ColumnMaxIn)); err != nil {
			return nil, &IngestionError{File: name, Row: sheetRow, Column: domain.ColumnMaxIn, Err: err}
		}
		if row.MaxOut, err = parseNumber(cell(domain.ColumnMaxOut)); err != nil {
			return nil, &IngestionError{File: name, Row: sheetRow, Column: domain.ColumnMaxOut, Err: err}
		}
		if row.UtilTime, err = p.parseTime(cell(domain.ColumnUtilTime), date1904); err != nil {
			return nil, &IngestionError{File: name, Row: sheetRow, Column: domain.ColumnUtilTime, Err: err}
		}

		ds.Rows = append(ds.Rows, row)
	}

	if len(ds.Rows) == 0 {
		return nil, &IngestionError{File: name, Err: ErrNoData}
	}

	p.logger.Info("workbook parsed",
		slog.String("file", name),
		slog.String("kind", string(kind)),
		slog.Int("rows", len(ds.Rows)))

	return ds, nil
}

// findHeader returns the index of the header row and the position of each
// required column. On failure the error text lists the columns missing from
// the closest candidate row.
func findHeader(rows [][]string, required []string) (int, map[string]int, error) {
	best := required
	for i := 0; i < len(rows) && i < headerSearchRows; i++ {
		columnMap := make(map[string]int)
		for j, header := range rows[i] {
			key := strings.ToLower(strings.TrimSpace(header))
			if _, seen := columnMap[key]; !seen {
				columnMap[key] = j
			}
		}

		var missing []string
		for _, col := range required {
			if _, ok := columnMap[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) == 0 {
			return i, columnMap, nil
		}
		if len(missing) < len(best) {
			best = missing
		}
	}
	return -1, nil, fmt.Errorf("%s", strings.Join(best, ","))
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber reads a utilization cell. Empty and NaN cells are missing.
func parseNumber(s string) (*float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if v < 0 || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, v)
	}
	return &v, nil
}

// parseTime reads a util_time cell, either an Excel serial date or text.
// Serial dates are rounded to the millisecond to undo float noise.
func (p *Parser) parseTime(s string, date1904 bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, s, err)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.location).
			Round(time.Millisecond), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, p.location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
