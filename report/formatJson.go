package report

import (
	"encoding/json"
	"io"

	"github.com/gigapi/gigapi-accidents/aggregate"
)

// Response is the JSON document written by JsonFormatter
type Response struct {
	Title   string           `json:"title"`
	Unit    string           `json:"unit,omitempty"`
	Labels  []string         `json:"labels"`
	Results []map[string]any `json:"results"`
}

// ProcessResultsForJSON flattens combined rows into one object per year
// keyed by label.
func ProcessResultsForJSON(c *aggregate.Combined, opts Options) []map[string]any {
	results := make([]map[string]any, len(c.Rows))
	for i, row := range c.Rows {
		obj := make(map[string]any, len(c.Labels)+1)
		obj[aggregate.YearKey] = row.Year
		for j, label := range c.Labels {
			obj[label] = opts.Value(row.Counts[j])
		}
		results[i] = obj
	}
	return results
}

func JsonFormatter(c *aggregate.Combined, opts Options, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Response{
		Title:   Title,
		Unit:    opts.Unit,
		Labels:  c.Labels,
		Results: ProcessResultsForJSON(c, opts),
	})
}

func NDJsonFormatter(c *aggregate.Combined, opts Options, w io.Writer) error {
	enc := json.NewEncoder(w)
	for _, result := range ProcessResultsForJSON(c, opts) {
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}
