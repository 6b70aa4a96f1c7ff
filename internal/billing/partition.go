package billing

import (
	"errors"
	"fmt"

	"autobill/pkg/contracts/domain"
)

// ErrInvalidWindow is returned for a selection whose window cannot be
// compared: an unset bound or a start after the end.
var ErrInvalidWindow = errors.New("invalid window")

// Partition is the set of peak values of one link inside its effective
// window.
type Partition struct {
	Link     string
	Window   domain.Window
	Selected bool
	Values   []float64
}

// Empty reports whether no row matched the partition.
func (p Partition) Empty() bool {
	return len(p.Values) == 0
}

// Links returns the distinct non-nil link keys of rows in first-appearance
// order.
func Links(rows []domain.AugmentedRow) []string {
	seen := make(map[string]struct{})
	var links []string
	for _, r := range rows {
		if r.Link == nil {
			continue
		}
		if _, ok := seen[*r.Link]; ok {
			continue
		}
		seen[*r.Link] = struct{}{}
		links = append(links, *r.Link)
	}
	return links
}

// ObservedRanges returns, per link, the [min, max] of util_time over every
// row carrying that link, whether or not its peak metric is present.
func ObservedRanges(rows []domain.AugmentedRow) map[string]domain.Window {
	ranges := make(map[string]domain.Window)
	for _, r := range rows {
		if r.Link == nil {
			continue
		}
		w, ok := ranges[*r.Link]
		if !ok {
			ranges[*r.Link] = domain.Window{Start: r.UtilTime, End: r.UtilTime}
			continue
		}
		if r.UtilTime.Before(w.Start) {
			w.Start = r.UtilTime
		}
		if r.UtilTime.After(w.End) {
			w.End = r.UtilTime
		}
		ranges[*r.Link] = w
	}
	return ranges
}

// ValidateWindow rejects windows that would silently mis-order rows.
func ValidateWindow(w domain.Window) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("%w: both bounds are required", ErrInvalidWindow)
	}
	if w.Start.After(w.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// PartitionRows groups rows by link and effective window.
//
// Selected links come first, in selection order, using their own window.
// A link selected twice keeps its first window. Every other link follows in
// first-appearance order with its observed range as the window. Rows with a
// nil link or nil peak never enter a partition.
func PartitionRows(rows []domain.AugmentedRow, selections []domain.Selection) ([]Partition, error) {
	byLink := make(map[string][]int)
	for i, r := range rows {
		if r.Link == nil {
			continue
		}
		byLink[*r.Link] = append(byLink[*r.Link], i)
	}

	selected := make(map[string]struct{}, len(selections))
	partitions := make([]Partition, 0, len(byLink)+len(selections))

	for _, sel := range selections {
		if _, dup := selected[sel.Link]; dup {
			continue
		}
		if err := ValidateWindow(sel.Window); err != nil {
			return nil, fmt.Errorf("selection %q: %w", sel.Link, err)
		}
		selected[sel.Link] = struct{}{}
		partitions = append(partitions, collect(rows, byLink[sel.Link], sel.Link, sel.Window, true))
	}

	ranges := ObservedRanges(rows)
	for _, link := range Links(rows) {
		if _, ok := selected[link]; ok {
			continue
		}
		partitions = append(partitions, collect(rows, byLink[link], link, ranges[link], false))
	}

	return partitions, nil
}

func collect(rows []domain.AugmentedRow, idx []int, link string, w domain.Window, selected bool) Partition {
	p := Partition{Link: link, Window: w, Selected: selected}
	for _, i := range idx {
		r := rows[i]
		if r.MaxMax == nil || !w.Contains(r.UtilTime) {
			continue
		}
		p.Values = append(p.Values, *r.MaxMax)
	}
	return p
}
