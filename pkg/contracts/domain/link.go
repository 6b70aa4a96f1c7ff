package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies which utilization feed a workbook came from.
// The kind decides which pair of columns forms the link key.
type SourceKind string

const (
	SourceGGSN SourceKind = "GGSN"
	SourceIX   SourceKind = "IX"
)

// SourceKinds lists the supported feeds in the order they are probed
// when classifying uploaded files.
var SourceKinds = []SourceKind{SourceGGSN, SourceIX}

// ParseSourceKind converts user input ("ggsn", "IX", ...) into a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToUpper(strings.TrimSpace(s))) {
	case SourceGGSN:
		return SourceGGSN, nil
	case SourceIX:
		return SourceIX, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Column names shared by both feeds.
const (
	ColumnMetro     = "metro"
	ColumnPETransit = "pe_transit"
	ColumnPort      = "port"
	ColumnMaxIn     = "max_in"
	ColumnMaxOut    = "max_out"
	ColumnUtilTime  = "util_time"
	ColumnLink      = "link"
	ColumnMaxMax    = "max_max"
)

// Row is one utilization sample as produced by the record loader.
//
// Identity fields are kept by column name so that the link key deriver can
// stay table driven. A nil pointer means the cell was empty.
type Row struct {
	Kind     SourceKind         `json:"kind"`
	Fields   map[string]*string `json:"fields"`
	MaxIn    *float64           `json:"max_in"`
	MaxOut   *float64           `json:"max_out"`
	UtilTime time.Time          `json:"util_time"`

	// Cells holds the raw cell text aligned with Dataset.Columns.
	Cells []string `json:"-"`
}

// Field returns the identity field with the given column name.
func (r Row) Field(name string) *string {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[name]
}

// AugmentedRow is a Row with the derived link key and peak metric.
// Both derived values may be nil when their inputs were missing.
type AugmentedRow struct {
	Row
	Link   *string  `json:"link"`
	MaxMax *float64 `json:"max_max"`
}

// Dataset is the parsed content of one workbook.
type Dataset struct {
	Kind    SourceKind `json:"kind"`
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    []Row      `json:"-"`
}

// Window is an inclusive [Start, End] time range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, both bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// IsZero reports whether neither bound has been set.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339Nano), w.End.Format(time.RFC3339Nano))
}

// Selection is an operator-chosen window for one link.
type Selection struct {
	Link   string `json:"link"`
	Window Window `json:"window"`
}

// PercentileResult is one row of the summary sheet.
type PercentileResult struct {
	Link         string  `json:"link"`
	Percentile95 float64 `json:"percentile_95"`
}

// QualityReport counts rows and partitions left out of the aggregation.
// None of these are errors.
type QualityReport struct {
	TotalRows       int `json:"total_rows"`
	NullLinkRows    int `json:"null_link_rows"`
	NullPeakRows    int `json:"null_peak_rows"`
	EmptyPartitions int `json:"empty_partitions"`
}

// Dropped returns the number of rows that did not take part in any percentile.
// A row missing both its key and its peak is counted once.
func (q QualityReport) Dropped() int {
	return q.NullLinkRows + q.NullPeakRows
}
