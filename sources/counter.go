package sources

import (
	"context"
	"fmt"

	"github.com/gigapi/gigapi-accidents/acquire"
	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/gigapi/gigapi-accidents/core"
	"github.com/gigapi/gigapi-accidents/querier"
	"github.com/gigapi/gigapi-accidents/table"
)

const (
	EngineNative = "native"
	EngineDuckDB = "duckdb"
)

// CountRequest names what to count in an artifact
type CountRequest struct {
	DateColumn string
	Label      string
	Read       table.ReadOptions
	Policy     aggregate.DatePolicy
}

// Counter turns a local artifact into per-year counts
type Counter interface {
	Count(ctx context.Context, artifact core.LocalArtifact, req CountRequest) (*aggregate.YearlyCount, error)
}

// Ensure counters implement Counter interface
var (
	_ Counter = (*NativeCounter)(nil)
	_ Counter = (*DuckDBCounter)(nil)
)

// NativeCounter loads the artifact into memory and groups it in Go
type NativeCounter struct {
	Acquirer *acquire.Acquirer
}

func (n *NativeCounter) Count(ctx context.Context, artifact core.LocalArtifact, req CountRequest) (*aggregate.YearlyCount, error) {
	t, err := n.Acquirer.LoadTable(ctx, artifact, req.Read)
	if err != nil {
		return nil, err
	}
	core.Debugf(ctx, "Loaded %d rows from %s", t.Len(), artifact.Path)
	return aggregate.AggregateByYear(t, req.DateColumn, req.Label, aggregate.WithDatePolicy(req.Policy))
}

// DuckDBCounter counts plain UTF-8 CSV artifacts with DuckDB on the OS
// filesystem and hands everything else to Fallback.
type DuckDBCounter struct {
	Acquirer *acquire.Acquirer
	Engine   *querier.QueryClient
	Fallback Counter
}

func (d *DuckDBCounter) handles(artifact core.LocalArtifact, req CountRequest) bool {
	return artifact.Format == core.FormatCSV && req.Read.Encoding == "" && req.Read.Comma == 0 && d.Acquirer.Root != ""
}

func (d *DuckDBCounter) Count(ctx context.Context, artifact core.LocalArtifact, req CountRequest) (*aggregate.YearlyCount, error) {
	if !d.handles(artifact, req) {
		core.Debugf(ctx, "DuckDB cannot read %s, counting natively", artifact.Path)
		return d.Fallback.Count(ctx, artifact, req)
	}
	path, err := d.Acquirer.RealPath(artifact)
	if err != nil {
		return nil, err
	}
	return d.Engine.YearlyCounts(ctx, path, req.DateColumn, req.Label, req.Policy)
}

// NewCounter selects a counting engine. The DuckDB engine must already be
// initialized.
func NewCounter(engine string, acq *acquire.Acquirer, q *querier.QueryClient) (Counter, error) {
	native := &NativeCounter{Acquirer: acq}
	switch engine {
	case "", EngineNative:
		return native, nil
	case EngineDuckDB:
		if q == nil {
			return nil, fmt.Errorf("duckdb engine requires a query client")
		}
		return &DuckDBCounter{Acquirer: acq, Engine: q, Fallback: native}, nil
	}
	return nil, fmt.Errorf("unknown engine %q", engine)
}
