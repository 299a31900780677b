package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gigapi/gigapi-accidents/aggregate"
)

// Title heads rendered tables
const Title = "Accidents per Year"

type formatterFn func(c *aggregate.Combined, opts Options, w io.Writer) error

var formatters = map[string]formatterFn{
	"table":    TableFormatter,
	"markdown": MarkdownFormatter,
	"json":     JsonFormatter,
	"ndjson":   NDJsonFormatter,
	"csv":      CSVFormatter,
}

// Formats lists the registered output formats.
func Formats() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write renders c to w in the named format.
func Write(w io.Writer, format string, c *aggregate.Combined, opts Options) error {
	if c == nil {
		return fmt.Errorf("nothing to render")
	}
	if format == "" {
		format = "table"
	}
	fn, ok := formatters[strings.ToLower(format)]
	if !ok {
		return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats(), ", "))
	}
	return fn(c, opts, w)
}

// Options controls display scaling. Counts are divided by Scale and Unit is
// appended to every count header.
type Options struct {
	Scale float64
	Unit  string
}

var scales = map[string]Options{
	"":          {},
	"none":      {},
	"thousands": {Scale: 1e3, Unit: "Thousands"},
	"millions":  {Scale: 1e6, Unit: "Millions"},
}

// ParseScale maps a scale name to Options.
func ParseScale(name string) (Options, error) {
	opts, ok := scales[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Options{}, fmt.Errorf("unknown scale %q (want none, thousands or millions)", name)
	}
	return opts, nil
}

func (o Options) scaled() bool {
	return o.Scale > 0 && o.Scale != 1
}

// Header decorates a label with the display unit.
func (o Options) Header(label string) string {
	if o.Unit == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, o.Unit)
}

// Value is the display value of a raw count: the count itself, or a float
// when scaling applies.
func (o Options) Value(n int64) any {
	if !o.scaled() {
		return n
	}
	return float64(n) / o.Scale
}

// Text formats a raw count for text outputs.
func (o Options) Text(n int64) string {
	if !o.scaled() {
		return strconv.FormatInt(n, 10)
	}
	return strconv.FormatFloat(float64(n)/o.Scale, 'f', 3, 64)
}

func headers(c *aggregate.Combined, opts Options) []string {
	h := make([]string, 0, len(c.Labels)+1)
	h = append(h, "Year")
	for _, label := range c.Labels {
		h = append(h, opts.Header(label))
	}
	return h
}
