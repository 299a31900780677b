package aggregate

import (
	"fmt"
	"sort"

	"github.com/gigapi/gigapi-accidents/core"
	"github.com/gigapi/gigapi-accidents/table"
)

// DatePolicy decides what happens to rows whose date cannot be parsed
type DatePolicy string

const (
	// PolicyDrop coerces unparseable dates to missing and leaves the row out of every year
	PolicyDrop DatePolicy = "drop"
	// PolicyStrict fails on the first unparseable date
	PolicyStrict DatePolicy = "strict"
)

// ParseDatePolicy validates a policy name. Empty selects PolicyDrop.
func ParseDatePolicy(s string) (DatePolicy, error) {
	switch DatePolicy(s) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyStrict:
		return PolicyStrict, nil
	}
	return "", fmt.Errorf("unknown date policy %q", s)
}

// YearRow is the event count of one calendar year
type YearRow struct {
	Year  int   `json:"year"`
	Count int64 `json:"count"`
}

// YearlyCount is a per-year event count for a single source, ordered by year
type YearlyCount struct {
	Label   string    `json:"label"`
	Rows    []YearRow `json:"rows"`
	Dropped int64     `json:"dropped"`
}

// Total sums the counts of every year
func (y *YearlyCount) Total() int64 {
	var total int64
	for _, r := range y.Rows {
		total += r.Count
	}
	return total
}

// Lookup returns the count of a year
func (y *YearlyCount) Lookup(year int) (int64, bool) {
	for _, r := range y.Rows {
		if r.Year == year {
			return r.Count, true
		}
	}
	return 0, false
}

// FromCounts builds an ordered YearlyCount from a year -> count map
func FromCounts(label string, counts map[int]int64, dropped int64) *YearlyCount {
	rows := make([]YearRow, 0, len(counts))
	for year, count := range counts {
		rows = append(rows, YearRow{Year: year, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return &YearlyCount{Label: label, Rows: rows, Dropped: dropped}
}

type options struct {
	policy DatePolicy
}

// Option configures AggregateByYear
type Option func(*options)

// WithDatePolicy sets the unparseable date policy
func WithDatePolicy(p DatePolicy) Option {
	return func(o *options) { o.policy = p }
}

// AggregateByYear counts the rows of t per calendar year of dateColumn
func AggregateByYear(t *table.Table, dateColumn, label string, opts ...Option) (*YearlyCount, error) {
	o := options{policy: PolicyDrop}
	for _, opt := range opts {
		opt(&o)
	}

	values, err := t.Column(dateColumn)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64)
	var dropped int64
	for i, v := range values {
		parsed, ok := ParseDate(v)
		if !ok {
			if o.policy == PolicyStrict {
				return nil, &core.DateParseError{Column: dateColumn, Row: i + 1, Value: v}
			}
			dropped++
			continue
		}
		counts[parsed.Year()]++
	}
	return FromCounts(label, counts, dropped), nil
}
