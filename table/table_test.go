package table

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gigapi/gigapi-accidents/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	input := "\xEF\xBB\xBFID,Start_Time,City\n" +
		"A-1,2016-02-08 05:46:00,Dayton\n" +
		"A-2,2016-02-08 06:07:59\n" +
		"A-3,\"2017-01-01 00:00:00\",\"Columbus, OH\",extra\n"

	tbl, err := ReadCSV(strings.NewReader(input), ReadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Start_Time", "City"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"A-2", "2016-02-08 06:07:59", ""}, tbl.Rows[1])
	assert.Equal(t, []string{"A-3", "2017-01-01 00:00:00", "Columbus, OH"}, tbl.Rows[2])

	dates, err := tbl.Column("Start_Time")
	require.NoError(t, err)
	assert.Equal(t, []string{"2016-02-08 05:46:00", "2016-02-08 06:07:59", "2017-01-01 00:00:00"}, dates)
}

func TestReadCSVEncoding(t *testing.T) {
	// "Montréal" in windows-1252
	input := []byte("incident_date,city_or_county\n2014-01-01,Montr\xe9al\n")

	tbl, err := ReadCSV(bytes.NewReader(input), ReadOptions{Encoding: "windows-1252"})
	require.NoError(t, err)
	assert.Equal(t, "Montréal", tbl.Rows[0][1])

	_, err = ReadCSV(bytes.NewReader(input), ReadOptions{Encoding: "klingon"})
	assert.Error(t, err)
}

func TestReadCSVDelimiterAndEmpty(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a;b\n1;2\n"), ReadOptions{Comma: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.Rows)

	_, err = ReadCSV(strings.NewReader(""), ReadOptions{})
	assert.Error(t, err)
}

func TestColumnLookup(t *testing.T) {
	tbl := New([]string{"ev_id", " EV_DATE ", "ev_date"}, [][]string{{"1", "x", "2001-01-01"}})

	assert.Equal(t, 2, tbl.ColumnIndex("ev_date"), "exact match wins")
	assert.Equal(t, 0, tbl.ColumnIndex("EV_ID"))
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))

	_, err := tbl.Column("missing")
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

func TestReadSpreadsheet(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"ev_id", "ev_date", "ev_city"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]interface{}{"20001204X00000", "1982-01-01", "Moose Creek"}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]interface{}{"20001204X00001", "1983-05-06"}))
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := ReadSpreadsheet(bytes.NewReader(buf.Bytes()), ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ev_id", "ev_date", "ev_city"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"20001204X00001", "1983-05-06", ""}, tbl.Rows[1])

	_, err = ReadSpreadsheet(bytes.NewReader(buf.Bytes()), ReadOptions{Sheet: "Nope"})
	assert.Error(t, err)

	_, err = ReadSpreadsheet(strings.NewReader("not a workbook"), ReadOptions{})
	assert.Error(t, err)
}

func TestReadSpreadsheetDateCells(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	shortDate, err := book.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	custom := "dd/mm/yy"
	customDate, err := book.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)

	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]interface{}{"ev_id", "ev_date", "inj_tot"}))
	rows := []struct {
		id    string
		date  time.Time
		style int
	}{
		{"19620704X00001", time.Date(1962, 7, 4, 0, 0, 0, 0, time.UTC), shortDate},
		{"19650301X00002", time.Date(1965, 3, 1, 0, 0, 0, 0, time.UTC), customDate},
		{"20190301X00003", time.Date(2019, 3, 1, 14, 30, 0, 0, time.UTC), 0},
	}
	for i, row := range rows {
		n := i + 2
		require.NoError(t, book.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.id))
		require.NoError(t, book.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.date))
		if row.style != 0 {
			require.NoError(t, book.SetCellStyle(sheet, fmt.Sprintf("B%d", n), fmt.Sprintf("B%d", n), row.style))
		}
		require.NoError(t, book.SetCellValue(sheet, fmt.Sprintf("C%d", n), 2))
	}
	buf, err := book.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := ReadSpreadsheet(bytes.NewReader(buf.Bytes()), ReadOptions{})
	require.NoError(t, err)

	dates, err := tbl.Column("ev_date")
	require.NoError(t, err)
	assert.Equal(t, []string{"1962-07-04 00:00:00", "1965-03-01 00:00:00", "2019-03-01 14:30:00"}, dates)

	counts, err := tbl.Column("inj_tot")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "2", "2"}, counts, "plain numbers are left alone")
}

func TestIsDateFormat(t *testing.T) {
	assert.True(t, isDateFormat("yyyy-mm-dd"))
	assert.True(t, isDateFormat("[$-409]h:mm AM/PM"))
	assert.False(t, isDateFormat("0.00"))
	assert.False(t, isDateFormat(`#,##0 "days"`))
	assert.False(t, isDateFormat("[Red]0"))
	assert.True(t, isBuiltInDateFormat(14))
	assert.True(t, isBuiltInDateFormat(22))
	assert.False(t, isBuiltInDateFormat(2))
}
