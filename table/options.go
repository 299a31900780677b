package table

// ReadOptions tunes how tabular files are decoded
type ReadOptions struct {
	// Encoding names the source text encoding of CSV files, e.g. "windows-1252".
	// Empty means UTF-8.
	Encoding string
	// Sheet selects a spreadsheet sheet by name. Empty means the first sheet.
	Sheet string
	// Comma overrides the CSV field delimiter
	Comma rune
}
