package table

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateLayout is the text form date cells are normalized to
const DateLayout = "2006-01-02 15:04:05"

// ReadSpreadsheet reads an .xlsx workbook. The first row of the sheet is the header.
// Cells styled with a date format are converted from their serial value to
// DateLayout text, so two-digit display years never reach the caller.
func ReadSpreadsheet(r io.Reader, opts ReadOptions) (*Table, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer book.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := book.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("spreadsheet has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty: missing header row", sheet)
	}

	dates := newDateCells(book, sheet)
	for i := 1; i < len(rows); i++ {
		for j, value := range rows[i] {
			if converted, ok := dates.convert(j+1, i+1, value); ok {
				rows[i][j] = converted
			}
		}
	}
	return New(rows[0], rows[1:]), nil
}

// dateCells recognizes date styled cells, caching the verdict per style
type dateCells struct {
	book     *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

func newDateCells(book *excelize.File, sheet string) *dateCells {
	d := &dateCells{book: book, sheet: sheet, styles: map[int]bool{}}
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateCells) convert(col, row int, value string) (string, bool) {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	idx, err := d.book.GetCellStyle(d.sheet, cell)
	if err != nil || !d.isDateStyle(idx) {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return "", false
	}
	return t.Round(time.Second).Format(DateLayout), true
}

func (d *dateCells) isDateStyle(idx int) bool {
	if verdict, ok := d.styles[idx]; ok {
		return verdict
	}
	verdict := false
	if style, err := d.book.GetStyle(idx); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			verdict = isDateFormat(*style.CustomNumFmt)
		} else {
			verdict = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.styles[idx] = verdict
	return verdict
}

// isBuiltInDateFormat reports the built-in number formats that render dates or times
func isBuiltInDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 45 && id <= 47) || (id >= 50 && id <= 58)
}

// isDateFormat reports whether a custom format code has date or time
// tokens outside quoted literals and bracketed sections.
func isDateFormat(code string) bool {
	code = strings.ToLower(code)
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case strings.IndexByte("ydmhs", c) >= 0:
			return true
		}
	}
	return false
}
