package exporter

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"autobill/internal/billing"
	"autobill/pkg/contracts/domain"
)

func str(s string) *string   { return &s }
func num(v float64) *float64 { return &v }

func sampleDataset() *domain.Dataset {
	at := func(h int) time.Time { return time.Date(2025, 3, 1, h, 0, 0, 0, time.UTC) }
	row := func(metro, port *string, in, out *float64, h int, note string) domain.Row {
		cells := []string{"", "", "", "", "", note}
		if metro != nil {
			cells[0] = *metro
		}
		if port != nil {
			cells[1] = *port
		}
		return domain.Row{
			Kind:     domain.SourceGGSN,
			Fields:   map[string]*string{domain.ColumnMetro: metro, domain.ColumnPort: port},
			MaxIn:    in,
			MaxOut:   out,
			UtilTime: at(h),
			Cells:    cells,
		}
	}
	return &domain.Dataset{
		Kind:    domain.SourceGGSN,
		Source:  "GGSN.xlsx",
		Columns: []string{"metro", "port", "max_in", "max_out", "util_time", "note"},
		Rows: []domain.Row{
			row(str("BGW"), str("P1"), num(10), num(20), 0, "a"),
			row(str("BGW"), str("P1"), num(40), nil, 1, "b"),
			row(nil, str("P2"), num(5), num(6), 2, ""),
			row(str("BSR"), str("P3"), nil, nil, 3, "d"),
		},
	}
}

func exportSample(t *testing.T, level float64) (*excelize.File, *billing.Result) {
	t.Helper()

	ds := sampleDataset()
	result, err := billing.Compute(ds.Rows, nil, billing.Options{Level: level})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, ds, result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, result
}

func TestWriteWorkbook_Sheets(t *testing.T) {
	f, _ := exportSample(t, 0)
	assert.Equal(t, []string{DatasetSheet, SummarySheet}, f.GetSheetList())
}

func TestWriteWorkbook_DatasetSheet(t *testing.T) {
	f, _ := exportSample(t, 0)

	rows, err := f.GetRows(DatasetSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, []string{"metro", "port", "max_in", "max_out", "util_time", "note", "link", "max_max"}, rows[0])

	first := rows[1]
	assert.Equal(t, "BGW", first[0])
	assert.Equal(t, "10", first[2])
	assert.Equal(t, "a", first[5])
	assert.Equal(t, "BGWP1", first[6])
	assert.Equal(t, "20", first[7])

	serial, err := strconv.ParseFloat(first[4], 64)
	require.NoError(t, err)
	ts, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), ts, time.Second)

	second := rows[2]
	assert.Equal(t, "", second[3], "missing max_out stays empty")
	assert.Equal(t, "40", second[7])

	third := rows[3]
	assert.Equal(t, "", third[0])
	assert.Equal(t, "", third[6], "row without metro has no link")

	fourth := rows[4]
	assert.Equal(t, "BSRP3", fourth[6])
	if len(fourth) > 7 {
		assert.Equal(t, "", fourth[7], "row without utilization has no max_max")
	}
}

func TestWriteWorkbook_SummarySheet(t *testing.T) {
	f, result := exportSample(t, 0)

	rows, err := f.GetRows(SummarySheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	require.Len(t, result.Percentiles, 1)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"link", "percentile_95"}, rows[0])
	assert.Equal(t, "BGWP1", rows[1][0])

	got, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, result.Percentiles[0].Percentile95, got, 1e-9)
}

func TestWriteWorkbook_LevelColumn(t *testing.T) {
	f, _ := exportSample(t, 0.5)

	header, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, "percentile_50", header[0][1])
}

func TestWriteWorkbook_ExistingDerivedColumns(t *testing.T) {
	ds := &domain.Dataset{
		Kind:    domain.SourceIX,
		Columns: []string{"pe_transit", "port", "link", "max_in", "max_out", "util_time"},
		Rows: []domain.Row{{
			Kind:     domain.SourceIX,
			Fields:   map[string]*string{domain.ColumnPETransit: str("PE"), domain.ColumnPort: str("1")},
			MaxIn:    num(3),
			MaxOut:   num(4),
			UtilTime: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Cells:    []string{"PE", "1", "stale", "3", "4", "45717"},
		}},
	}
	result, err := billing.Compute(ds.Rows, nil, billing.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, ds, result))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DatasetSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pe_transit", "port", "link", "max_in", "max_out", "util_time", "max_max"}, rows[0])
	assert.Equal(t, "PE1", rows[1][2])
	assert.Equal(t, "4", rows[1][6])
}

func TestWriteWorkbook_NoResult(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteWorkbook(&buf, nil, nil), ErrNoResult)
}
