package report

import (
	"io"

	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newWriter(c *aggregate.Combined, opts Options) table.Writer {
	t := table.NewWriter()
	t.SetTitle(Title)

	header := table.Row{}
	for _, h := range headers(c, opts) {
		header = append(header, h)
	}
	t.AppendHeader(header)

	totals := make([]int64, len(c.Labels))
	for _, row := range c.Rows {
		r := table.Row{row.Year}
		for i, n := range row.Counts {
			r = append(r, opts.Text(n))
			totals[i] += n
		}
		t.AppendRow(r)
	}

	footer := table.Row{"Total"}
	for _, n := range totals {
		footer = append(footer, opts.Text(n))
	}
	t.AppendFooter(footer)

	configs := make([]table.ColumnConfig, 0, len(c.Labels))
	for i := range c.Labels {
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	t.SetColumnConfigs(configs)
	return t
}

// TableFormatter renders a boxed terminal table.
func TableFormatter(c *aggregate.Combined, opts Options, w io.Writer) error {
	t := newWriter(c, opts)
	t.SetStyle(table.StyleRounded)
	_, err := io.WriteString(w, t.Render()+"\n")
	return err
}

// MarkdownFormatter renders a GitHub-flavoured Markdown table.
func MarkdownFormatter(c *aggregate.Combined, opts Options, w io.Writer) error {
	t := newWriter(c, opts)
	_, err := io.WriteString(w, t.RenderMarkdown()+"\n")
	return err
}
