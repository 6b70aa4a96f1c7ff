package billing

import (
	"fmt"

	"autobill/pkg/contracts/domain"
)

// Options tunes a computation. The zero value computes the 95th percentile.
type Options struct {
	Level float64
}

func (o Options) level() float64 {
	if o.Level == 0 {
		return DefaultLevel
	}
	return o.Level
}

// Result is the outcome of one computation.
type Result struct {
	Level       float64                   `json:"level"`
	Rows        []domain.AugmentedRow     `json:"-"`
	Percentiles []domain.PercentileResult `json:"percentiles"`
	Quality     domain.QualityReport      `json:"quality"`
}

// Augment derives link and max_max for every row. The returned slice is
// new; rows is not modified.
func Augment(rows []domain.Row) ([]domain.AugmentedRow, error) {
	out := make([]domain.AugmentedRow, len(rows))
	for i, r := range rows {
		link, err := DeriveLink(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = domain.AugmentedRow{
			Row:    r,
			Link:   link,
			MaxMax: PeakMetric(r.MaxIn, r.MaxOut),
		}
	}
	return out, nil
}

// Aggregate computes the q-quantile of every non-empty partition, keeping
// partition order. It returns the number of empty partitions it skipped.
func Aggregate(partitions []Partition, q float64) ([]domain.PercentileResult, int, error) {
	results := make([]domain.PercentileResult, 0, len(partitions))
	empty := 0
	for _, p := range partitions {
		if p.Empty() {
			empty++
			continue
		}
		v, err := Quantile(p.Values, q)
		if err != nil {
			return nil, 0, fmt.Errorf("link %q: %w", p.Link, err)
		}
		results = append(results, domain.PercentileResult{Link: p.Link, Percentile95: v})
	}
	return results, empty, nil
}

// Compute runs the full pipeline over rows with the given selections.
func Compute(rows []domain.Row, selections []domain.Selection, opts Options) (*Result, error) {
	q := opts.level()
	if q <= 0 || q > 1 {
		return nil, fmt.Errorf("quantile level %v out of range (0, 1]", q)
	}

	augmented, err := Augment(rows)
	if err != nil {
		return nil, err
	}

	partitions, err := PartitionRows(augmented, selections)
	if err != nil {
		return nil, err
	}

	percentiles, empty, err := Aggregate(partitions, q)
	if err != nil {
		return nil, err
	}

	return &Result{
		Level:       q,
		Rows:        augmented,
		Percentiles: percentiles,
		Quality:     assess(augmented, empty),
	}, nil
}

func assess(rows []domain.AugmentedRow, emptyPartitions int) domain.QualityReport {
	q := domain.QualityReport{TotalRows: len(rows), EmptyPartitions: emptyPartitions}
	for _, r := range rows {
		switch {
		case r.Link == nil:
			q.NullLinkRows++
		case r.MaxMax == nil:
			q.NullPeakRows++
		}
	}
	return q
}
