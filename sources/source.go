package sources

import (
	"context"
	"fmt"

	"github.com/gigapi/gigapi-accidents/acquire"
	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/gigapi/gigapi-accidents/config"
	"github.com/gigapi/gigapi-accidents/core"
	"github.com/gigapi/gigapi-accidents/table"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sources")

// Source is an accident dataset that can be fetched locally and counted per year
type Source interface {
	Name() string
	Label() string
	Fetch(ctx context.Context) (core.LocalArtifact, error)
	YearlyCounts(ctx context.Context) (*aggregate.YearlyCount, error)
}

// Ensure variants implement Source interface
var (
	_ Source = (*DatasetSource)(nil)
	_ Source = (*FileSource)(nil)
	_ Source = (*LocalSource)(nil)
)

// Deps are the collaborators shared by every source
type Deps struct {
	Acquirer *acquire.Acquirer
	Counter  Counter
	Policy   aggregate.DatePolicy
}

type base struct {
	name       string
	label      string
	dateColumn string
	read       table.ReadOptions
	deps       Deps
}

func (b *base) Name() string  { return b.name }
func (b *base) Label() string { return b.label }

func (b *base) count(ctx context.Context, fetch func(context.Context) (core.LocalArtifact, error)) (*aggregate.YearlyCount, error) {
	ctx, span := tracer.Start(ctx, "Source.YearlyCounts")
	defer span.End()
	span.SetAttributes(attribute.String("source", b.name))

	artifact, err := fetch(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch %s: %w", b.name, err)
	}

	counts, err := b.deps.Counter.Count(ctx, artifact, CountRequest{
		DateColumn: b.dateColumn,
		Label:      b.label,
		Read:       b.read,
		Policy:     b.deps.Policy,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("count %s: %w", b.name, err)
	}

	if counts.Dropped > 0 {
		core.Warnf(ctx, "%s: dropped %d rows with unparseable %s", b.name, counts.Dropped, b.dateColumn)
	}
	core.Infof(ctx, "%s: %d events over %d years", b.name, counts.Total(), len(counts.Rows))
	return counts, nil
}

// DatasetSource is a whole remote dataset whose archive holds a CSV
type DatasetSource struct {
	base
	Ref core.DatasetReference
}

func (s *DatasetSource) Fetch(ctx context.Context) (core.LocalArtifact, error) {
	return s.deps.Acquirer.EnsureWholeDataset(ctx, s.Ref)
}

func (s *DatasetSource) YearlyCounts(ctx context.Context) (*aggregate.YearlyCount, error) {
	return s.count(ctx, s.Fetch)
}

// FileSource is a single file of a remote dataset
type FileSource struct {
	base
	Ref core.DatasetReference
}

func (s *FileSource) Fetch(ctx context.Context) (core.LocalArtifact, error) {
	return s.deps.Acquirer.EnsureSingleFile(ctx, s.Ref)
}

func (s *FileSource) YearlyCounts(ctx context.Context) (*aggregate.YearlyCount, error) {
	return s.count(ctx, s.Fetch)
}

// LocalSource is a file placed in the working directory by some other
// process, such as a portal export.
type LocalSource struct {
	base
	Path string
}

func (s *LocalSource) Fetch(ctx context.Context) (core.LocalArtifact, error) {
	exists, err := afero.Exists(s.deps.Acquirer.Fs, s.Path)
	if err != nil {
		return core.LocalArtifact{}, err
	}
	if !exists {
		return core.LocalArtifact{}, fmt.Errorf("%s: %w", s.Path, core.ErrNotFound)
	}
	return core.NewArtifact(s.Path), nil
}

func (s *LocalSource) YearlyCounts(ctx context.Context) (*aggregate.YearlyCount, error) {
	return s.count(ctx, s.Fetch)
}

// New builds the source variant described by cfg
func New(cfg config.SourceConfig, deps Deps) (Source, error) {
	if deps.Acquirer == nil || deps.Counter == nil {
		return nil, fmt.Errorf("source %s: acquirer and counter are required", cfg.Name)
	}
	b := base{
		name:       cfg.Name,
		label:      cfg.Label,
		dateColumn: cfg.DateColumn,
		read:       table.ReadOptions{Encoding: cfg.Encoding, Sheet: cfg.Sheet},
		deps:       deps,
	}
	if b.label == "" {
		b.label = cfg.Name
	}
	if r := []rune(cfg.Delimiter); len(r) == 1 {
		b.read.Comma = r[0]
	}

	if cfg.Path != "" {
		return &LocalSource{base: b, Path: cfg.Path}, nil
	}
	ref, err := core.ParseDatasetReference(cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}
	if cfg.File != "" {
		return &FileSource{base: b, Ref: ref.WithFile(cfg.File)}, nil
	}
	return &DatasetSource{base: b, Ref: ref}, nil
}
