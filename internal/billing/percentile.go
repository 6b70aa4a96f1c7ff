package billing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultLevel is the quantile billing is computed at.
const DefaultLevel = 0.95

// ErrEmptySample is returned by Quantile when it is given no values.
var ErrEmptySample = errors.New("empty sample")

// Quantile returns the q-quantile of values using linear interpolation
// between the two order statistics bracketing rank q*(n-1). values is not
// modified.
func Quantile(values []float64, q float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, ErrEmptySample
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, fmt.Errorf("quantile %v out of range [0, 1]", q)
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0], nil
	}

	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1], nil
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// ParseLevel parses a quantile level from either p-notation (p95) or
// decimal notation (0.95). An empty string yields DefaultLevel.
func ParseLevel(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLevel, nil
	}

	if strings.HasPrefix(strings.ToLower(s), "p") {
		p, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid p-notation %q: %w", s, err)
		}
		if p <= 0 || p > 100 {
			return 0, fmt.Errorf("percentile %v out of range (0, 100]", p)
		}
		return p / 100.0, nil
	}

	q, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantile %q: %w", s, err)
	}
	if q <= 0 || q > 1 {
		return 0, fmt.Errorf("quantile %v out of range (0, 1]", q)
	}
	return q, nil
}

// ColumnName returns the summary column header for a level, e.g.
// "percentile_95" for 0.95 and "percentile_99.9" for 0.999.
func ColumnName(q float64) string {
	p := q * 100
	if r := math.Round(p); math.Abs(p-r) < 1e-9 {
		return fmt.Sprintf("percentile_%d", int(r))
	}
	return "percentile_" + strconv.FormatFloat(math.Round(p*1e6)/1e6, 'f', -1, 64)
}
