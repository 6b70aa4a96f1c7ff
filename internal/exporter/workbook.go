package exporter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"autobill/internal/billing"
	"autobill/pkg/contracts/domain"
)

// Sheet names of the exported workbook.
const (
	DatasetSheet = "dataset"
	SummarySheet = "summary"
)

const dateTimeFormat = "yyyy-mm-dd hh:mm:ss"

// ErrNoResult is returned when there is nothing to export.
var ErrNoResult = errors.New("no result to export")

// datasetLayout describes how the dataset sheet's columns are filled.
type datasetLayout struct {
	headers  []string
	utilTime int
	maxIn    int
	maxOut   int
	link     int
	maxMax   int
}

// newDatasetLayout keeps the source columns in their original order and
// appends link and max_max unless the source already has them, in which case
// the derived values replace the source ones.
func newDatasetLayout(columns []string) datasetLayout {
	l := datasetLayout{utilTime: -1, maxIn: -1, maxOut: -1, link: -1, maxMax: -1}
	l.headers = append(l.headers, columns...)

	index := func(name string) int {
		for i, c := range columns {
			if strings.EqualFold(strings.TrimSpace(c), name) {
				return i
			}
		}
		return -1
	}
	l.utilTime = index(domain.ColumnUtilTime)
	l.maxIn = index(domain.ColumnMaxIn)
	l.maxOut = index(domain.ColumnMaxOut)

	if l.link = index(domain.ColumnLink); l.link < 0 {
		l.link = len(l.headers)
		l.headers = append(l.headers, domain.ColumnLink)
	}
	if l.maxMax = index(domain.ColumnMaxMax); l.maxMax < 0 {
		l.maxMax = len(l.headers)
		l.headers = append(l.headers, domain.ColumnMaxMax)
	}
	return l
}

func (l datasetLayout) row(r domain.AugmentedRow, dateStyle int) []interface{} {
	out := make([]interface{}, len(l.headers))
	for i := range out {
		if i < len(r.Cells) && r.Cells[i] != "" {
			out[i] = r.Cells[i]
		}
	}

	if l.utilTime >= 0 {
		out[l.utilTime] = excelize.Cell{StyleID: dateStyle, Value: wallClock(r.UtilTime)}
	}
	if l.maxIn >= 0 {
		out[l.maxIn] = optionalNumber(r.MaxIn)
	}
	if l.maxOut >= 0 {
		out[l.maxOut] = optionalNumber(r.MaxOut)
	}
	out[l.link] = nil
	if r.Link != nil {
		out[l.link] = *r.Link
	}
	out[l.maxMax] = optionalNumber(r.MaxMax)
	return out
}

func optionalNumber(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// WriteWorkbook writes the dataset and summary sheets for result to w.
// dataset supplies the source column order; result.Rows must come from
// dataset.Rows.
func WriteWorkbook(w io.Writer, dataset *domain.Dataset, result *billing.Result) error {
	if dataset == nil || result == nil {
		return ErrNoResult
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DatasetSheet); err != nil {
		return fmt.Errorf("failed to name dataset sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	format := dateTimeFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	if err := writeDatasetSheet(f, dataset, result, dateStyle); err != nil {
		return err
	}
	if err := writeSummarySheet(f, result); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeDatasetSheet(f *excelize.File, dataset *domain.Dataset, result *billing.Result, dateStyle int) error {
	sw, err := f.NewStreamWriter(DatasetSheet)
	if err != nil {
		return fmt.Errorf("failed to open dataset sheet: %w", err)
	}

	layout := newDatasetLayout(dataset.Columns)
	if err := sw.SetRow("A1", toInterfaces(layout.headers)); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	for i, r := range result.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, layout.row(r, dateStyle)); err != nil {
			return fmt.Errorf("failed to write dataset row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset sheet: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, result *billing.Result) error {
	sw, err := f.NewStreamWriter(SummarySheet)
	if err != nil {
		return fmt.Errorf("failed to open summary sheet: %w", err)
	}

	header := []interface{}{domain.ColumnLink, billing.ColumnName(result.Level)}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	for i, p := range result.Percentiles {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{p.Link, p.Percentile95}); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary sheet: %w", err)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
