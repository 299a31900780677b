package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *aggregate.Combined {
	return &aggregate.Combined{
		Labels: []string{"Aviation Accidents", "Car Crashes"},
		Rows: []aggregate.CombinedRow{
			{Year: 2018, Counts: []int64{1500, 892000}},
			{Year: 2019, Counts: []int64{1250, 954000}},
		},
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "csv", sample(), Options{}))
	assert.Equal(t,
		"Year,Aviation Accidents,Car Crashes\n2018,1500,892000\n2019,1250,954000\n",
		buf.String())
}

func TestCSVFormatterScaled(t *testing.T) {
	opts, err := ParseScale("thousands")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "csv", sample(), opts))
	assert.Equal(t,
		"Year,Aviation Accidents (Thousands),Car Crashes (Thousands)\n2018,1.500,892.000\n2019,1.250,954.000\n",
		buf.String())
}

func TestJsonFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "json", sample(), Options{}))

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, Title, resp.Title)
	assert.Empty(t, resp.Unit)
	assert.Equal(t, []string{"Aviation Accidents", "Car Crashes"}, resp.Labels)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, float64(2018), resp.Results[0]["year"])
	assert.Equal(t, float64(1500), resp.Results[0]["Aviation Accidents"])
}

func TestNDJsonFormatter(t *testing.T) {
	opts, err := ParseScale("thousands")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "ndjson", sample(), opts))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &row))
	assert.Equal(t, float64(2019), row["year"])
	assert.InDelta(t, 954.0, row["Car Crashes"], 1e-9)
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "", sample(), Options{}))

	out := buf.String()
	assert.Contains(t, out, Title)
	assert.Contains(t, out, "Aviation Accidents")
	assert.Contains(t, out, "2019")
	assert.Contains(t, out, "1846000")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "markdown", sample(), Options{}))
	assert.Contains(t, buf.String(), "| 2018 |")
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, "xml", sample(), Options{}))
	assert.Error(t, Write(&buf, "csv", nil, Options{}))
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		name    string
		want    Options
		wantErr bool
	}{
		{name: "", want: Options{}},
		{name: "none", want: Options{}},
		{name: "Thousands", want: Options{Scale: 1e3, Unit: "Thousands"}},
		{name: "millions", want: Options{Scale: 1e6, Unit: "Millions"}},
		{name: "dozens", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScale(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOptionsValue(t *testing.T) {
	assert.Equal(t, int64(1500), Options{}.Value(1500))
	assert.Equal(t, 1.5, Options{Scale: 1e3}.Value(1500))
	assert.Equal(t, "Car Crashes", Options{}.Header("Car Crashes"))
	assert.Equal(t, "Car Crashes (Millions)", Options{Unit: "Millions"}.Header("Car Crashes"))
}
