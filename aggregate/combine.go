package aggregate

import (
	"fmt"
	"sort"
	"strings"
)

// YearKey names the year field of rendered rows
const YearKey = "year"

// JoinMode is the merge policy used when combining yearly counts
type JoinMode string

const (
	// JoinInner keeps only the years present in every table
	JoinInner JoinMode = "inner"
	// JoinOuter keeps the union of years and fills missing counts with zero
	JoinOuter JoinMode = "outer"
)

// ParseJoinMode validates a join mode name. Empty selects JoinInner.
func ParseJoinMode(s string) (JoinMode, error) {
	switch JoinMode(s) {
	case "", JoinInner:
		return JoinInner, nil
	case JoinOuter:
		return JoinOuter, nil
	}
	return "", fmt.Errorf("unknown join mode %q", s)
}

// CombinedRow holds one year and the count of each source, in label order
type CombinedRow struct {
	Year   int     `json:"year"`
	Counts []int64 `json:"counts"`
}

// Combined is the year keyed join of several YearlyCount tables
type Combined struct {
	Labels []string      `json:"labels"`
	Rows   []CombinedRow `json:"rows"`
}

// Years returns the year keys in order
func (c *Combined) Years() []int {
	years := make([]int, len(c.Rows))
	for i, r := range c.Rows {
		years[i] = r.Year
	}
	return years
}

// Column returns the counts of one label in year order
func (c *Combined) Column(label string) ([]int64, bool) {
	for i, l := range c.Labels {
		if l != label {
			continue
		}
		out := make([]int64, len(c.Rows))
		for j, r := range c.Rows {
			out[j] = r.Counts[i]
		}
		return out, true
	}
	return nil, false
}

// Combine merges tables on the year key. Labels must be distinct and must not
// be YearKey since they name the count columns of the result.
func Combine(mode JoinMode, tables ...*YearlyCount) (*Combined, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("nothing to combine")
	}
	if mode != JoinInner && mode != JoinOuter {
		return nil, fmt.Errorf("unknown join mode %q", mode)
	}

	labels := make([]string, len(tables))
	seen := make(map[string]bool, len(tables))
	presence := make(map[int]int)
	for i, t := range tables {
		if strings.EqualFold(t.Label, YearKey) {
			return nil, fmt.Errorf("count label %q is reserved for the year column", t.Label)
		}
		if seen[t.Label] {
			return nil, fmt.Errorf("duplicate count label %q", t.Label)
		}
		seen[t.Label] = true
		labels[i] = t.Label
		for _, r := range t.Rows {
			presence[r.Year]++
		}
	}

	years := make([]int, 0, len(presence))
	for year, n := range presence {
		if mode == JoinInner && n < len(tables) {
			continue
		}
		years = append(years, year)
	}
	sort.Ints(years)

	rows := make([]CombinedRow, len(years))
	for i, year := range years {
		counts := make([]int64, len(tables))
		for j, t := range tables {
			counts[j], _ = t.Lookup(year)
		}
		rows[i] = CombinedRow{Year: year, Counts: counts}
	}
	return &Combined{Labels: labels, Rows: rows}, nil
}
