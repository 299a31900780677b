package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/gigapi/gigapi-accidents/aggregate"
)

func CSVFormatter(c *aggregate.Combined, opts Options, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers(c, opts)); err != nil {
		return err
	}
	for _, row := range c.Rows {
		record := make([]string, 0, len(row.Counts)+1)
		record = append(record, strconv.Itoa(row.Year))
		for _, n := range row.Counts {
			record = append(record, opts.Text(n))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
