// Package billing computes the 95th percentile traffic figure that link
// billing is based on.
//
// The package is pure: every function takes the full row set and the
// operator's window selections as arguments and returns a fresh result.
// Nothing is cached between calls, so callers can recompute whenever a
// selection changes.
//
// # Pipeline
//
//	rows → DeriveLink → PeakMetric → Partition → Quantile → []PercentileResult
//
// Rows whose link key or peak metric cannot be derived are dropped from the
// aggregation and counted in domain.QualityReport. They are still returned
// in Result.Rows so the exported dataset sheet is complete.
//
// # Windows
//
// Selected links use the operator's inclusive [start, end] window. Every
// other link uses the [min, max] range of its own util_time values. A
// selected link whose window matches none of its rows yields no result; it
// never falls back to the full range.
package billing
