// queryClient.go
package querier

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/gigapi/gigapi-accidents/core"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// Ensure QueryClient implements core.QueryClient interface
var _ core.QueryClient = (*QueryClient)(nil)

// QueryClient runs DuckDB over CSV artifacts on disk
type QueryClient struct {
	DB *sql.DB
}

// NewQueryClient creates a new QueryClient
func NewQueryClient() *QueryClient {
	return &QueryClient{}
}

// Initialize sets up an in-memory DuckDB connection
func (q *QueryClient) Initialize() error {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return fmt.Errorf("failed to initialize DuckDB: %w", err)
	}
	q.DB = db
	return nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvSource is the table expression reading every CSV cell as text
func csvSource(path string) string {
	return fmt.Sprintf("read_csv_auto(%s, header=true, all_varchar=true)", quoteLiteral(path))
}

// Columns returns the header of the CSV at path
func (q *QueryClient) Columns(ctx context.Context, path string) ([]string, error) {
	rows, err := q.Query(ctx, fmt.Sprintf("DESCRIBE SELECT * FROM %s", csvSource(path)))
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["column_name"].(string); ok {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

func (q *QueryClient) resolveColumn(ctx context.Context, path, column string) (string, error) {
	columns, err := q.Columns(ctx, path)
	if err != nil {
		return "", err
	}
	for _, c := range columns {
		if strings.EqualFold(c, column) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", core.ErrColumnNotFound, column)
}

// isoPattern matches the zone-less ISO values DuckDB and ParseDate read alike
const isoPattern = `\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2}(\.\d{1,9})?)?)?`

// YearlyCounts counts the rows of the CSV at path per calendar year of
// dateColumn. DuckDB settles plain ISO values; every other distinct value is
// parsed with aggregate.ParseDate, so the result matches the native counter.
// Unparseable values are dropped, or fail the call under the strict policy.
func (q *QueryClient) YearlyCounts(ctx context.Context, path, dateColumn, label string,
	policy aggregate.DatePolicy) (*aggregate.YearlyCount, error) {
	start := time.Now()

	column, err := q.resolveColumn(ctx, path, dateColumn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"WITH parsed AS (SELECT %[1]s AS raw, "+
			"CASE WHEN regexp_full_match(%[1]s, '%[2]s') THEN year(try_cast(%[1]s AS TIMESTAMP)) END AS year FROM %[3]s) "+
			"SELECT year, CASE WHEN year IS NULL THEN raw END AS raw, COUNT(*) AS count FROM parsed GROUP BY 1, 2",
		quoteIdent(column), isoPattern, csvSource(path))
	core.Debugf(ctx, "DuckDB query: %s", query)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	var dropped int64
	unparseable := map[string]bool{}
	for _, row := range rows {
		count := toInt64(row["count"])
		if row["year"] != nil {
			counts[int(toInt64(row["year"]))] += count
			continue
		}
		raw, _ := row["raw"].(string)
		if parsed, ok := aggregate.ParseDate(raw); ok {
			counts[parsed.Year()] += count
			continue
		}
		unparseable[raw] = true
		dropped += count
	}

	if policy == aggregate.PolicyStrict && dropped > 0 {
		return nil, q.firstUnparseable(ctx, path, column, unparseable)
	}

	core.Debugf(ctx, "Counted %s by year in: %v", path, time.Since(start))
	return aggregate.FromCounts(label, counts, dropped), nil
}

// firstUnparseable scans the column in file order for the first value in
// bad. NULL cells count as the empty string.
func (q *QueryClient) firstUnparseable(ctx context.Context, path, column string, bad map[string]bool) error {
	rows, err := q.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", quoteIdent(column), csvSource(path)))
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	for n := 1; rows.Next(); n++ {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}
		if bad[raw.String] {
			return &core.DateParseError{Column: column, Row: n, Value: raw.String}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return fmt.Errorf("unparseable date in column %s", column)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Query executes a query against the database
func (q *QueryClient) Query(ctx context.Context, query string, args ...any) ([]map[string]interface{}, error) {
	if q.DB == nil {
		return nil, fmt.Errorf("query client is not initialized")
	}

	rows, err := q.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	// Get column names
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Close releases resources
func (q *QueryClient) Close() error {
	if q.DB != nil {
		return q.DB.Close()
	}
	return nil
}
