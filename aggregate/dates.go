package aggregate

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts dateparse does not settle on its own, mostly spreadsheet display formats
var fallbackLayouts = []string{
	"01-02-06",
	"1-2-06",
	"01-02-2006",
	"02-Jan-2006",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate parses a date in any common layout, interpreting zone-less values as UTC.
// The ok result is false for empty or unparseable input.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseIn(value, time.UTC, dateparse.PreferMonthFirst(true)); err == nil {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
