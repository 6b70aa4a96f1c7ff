// Package selection turns operator window input into domain selections.
//
// Bounds given with a time of day are compared at full precision. A bound
// given as a bare date is aligned to midnight; when it is an end bound the
// whole day is included.
package selection

import (
	"fmt"
	"strings"
	"time"

	"autobill/internal/billing"
	"autobill/pkg/contracts/domain"
)

// DateLayout is the layout of date-only bounds.
const DateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Spec is a selection as typed by the operator. Empty Start or End means
// "use the link's observed bound".
type Spec struct {
	Link  string `json:"link" validate:"required"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// ParseBound parses one window bound in loc. Date-only values become
// midnight for a start and the last nanosecond of that day for an end.
func ParseBound(s string, isEnd bool, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		if isEnd {
			return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
		}
		return t, nil
	}

	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q as a date or date-time", billing.ErrInvalidWindow, s)
}

// ParseFlag parses the command-line form "link=start..end". Either bound
// may be omitted ("link=..2025-03-31"), and a bare "link" selects the link
// with its default window.
func ParseFlag(s string) (Spec, error) {
	link, rng, hasRange := strings.Cut(s, "=")
	link = strings.TrimSpace(link)
	if link == "" {
		return Spec{}, fmt.Errorf("selection %q: link is required", s)
	}
	if !hasRange {
		return Spec{Link: link}, nil
	}

	start, end, ok := strings.Cut(rng, "..")
	if !ok {
		return Spec{}, fmt.Errorf("selection %q: expected link=start..end", s)
	}
	return Spec{Link: link, Start: strings.TrimSpace(start), End: strings.TrimSpace(end)}, nil
}

// Resolve converts specs into selections, filling unset bounds from the
// link's observed range. Order is preserved. A spec for a link absent from
// observed must carry both bounds.
func Resolve(specs []Spec, observed map[string]domain.Window, loc *time.Location) ([]domain.Selection, error) {
	out := make([]domain.Selection, 0, len(specs))
	for _, spec := range specs {
		w := observed[spec.Link]

		if spec.Start != "" {
			t, err := ParseBound(spec.Start, false, loc)
			if err != nil {
				return nil, fmt.Errorf("selection %q start: %w", spec.Link, err)
			}
			w.Start = t
		}
		if spec.End != "" {
			t, err := ParseBound(spec.End, true, loc)
			if err != nil {
				return nil, fmt.Errorf("selection %q end: %w", spec.Link, err)
			}
			w.End = t
		}

		if err := billing.ValidateWindow(w); err != nil {
			return nil, fmt.Errorf("selection %q: %w", spec.Link, err)
		}
		out = append(out, domain.Selection{Link: spec.Link, Window: w})
	}
	return out, nil
}
