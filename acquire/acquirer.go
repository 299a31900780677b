package acquire

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gigapi/gigapi-accidents/archive"
	"github.com/gigapi/gigapi-accidents/core"
	"github.com/gigapi/gigapi-accidents/table"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// workDir is the working directory on the acquirer filesystem
const workDir = "."

// Acquirer guarantees a readable local tabular file exists for a dataset,
// downloading only when necessary. All artifacts land flat in the root of Fs.
type Acquirer struct {
	Remote core.DatasetService
	Fs     afero.Fs
	// Root is the OS path Fs is rooted at, empty for in-memory filesystems
	Root string

	inflight singleflight.Group
}

// New creates an acquirer over an arbitrary filesystem
func New(remote core.DatasetService, fs afero.Fs) *Acquirer {
	return &Acquirer{Remote: remote, Fs: fs}
}

// NewOnDisk creates an acquirer whose working directory is root on the OS filesystem
func NewOnDisk(remote core.DatasetService, root string) (*Acquirer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	a := New(remote, afero.NewBasePathFs(osFs, abs))
	a.Root = abs
	return a, nil
}

// RealPath returns the OS path of an artifact
func (a *Acquirer) RealPath(artifact core.LocalArtifact) (string, error) {
	if a.Root == "" {
		return "", fmt.Errorf("artifact %s is not backed by the OS filesystem", artifact.Path)
	}
	return filepath.Join(a.Root, artifact.Path), nil
}

// Ensure acquires the single file when ref names one, the whole dataset otherwise
func (a *Acquirer) Ensure(ctx context.Context, ref core.DatasetReference) (core.LocalArtifact, error) {
	if ref.File != "" {
		return a.EnsureSingleFile(ctx, ref)
	}
	return a.EnsureWholeDataset(ctx, ref)
}

// EnsureWholeDataset downloads the dataset archive unless it already exists,
// extracts it into the working directory and returns the first CSV found there.
// An existing archive is trusted as is.
func (a *Acquirer) EnsureWholeDataset(ctx context.Context, ref core.DatasetReference) (core.LocalArtifact, error) {
	archivePath := ref.ArchiveName()

	// the existence check, download and extraction run as one unit per archive
	v, err, _ := a.inflight.Do(archivePath, func() (interface{}, error) {
		exists, err := afero.Exists(a.Fs, archivePath)
		if err != nil {
			return nil, err
		}
		if exists {
			core.Infof(ctx, "Archive %s already present, skipping download", archivePath)
		} else {
			if err := a.Remote.DownloadDataset(ctx, ref.String(), a.Fs, workDir, false); err != nil {
				return nil, err
			}
		}

		if _, err := archive.Extract(a.Fs, archivePath, workDir); err != nil {
			return nil, err
		}

		csvName, err := a.firstCSV()
		if err != nil {
			return nil, err
		}
		core.Debugf(ctx, "Dataset %s resolved to %s", ref, csvName)
		return core.LocalArtifact{Path: csvName, Format: core.FormatCSV}, nil
	})
	if err != nil {
		return core.LocalArtifact{}, err
	}
	return v.(core.LocalArtifact), nil
}

func (a *Acquirer) firstCSV() (string, error) {
	// sorted by name
	entries, err := afero.ReadDir(a.Fs, workDir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			return entry.Name(), nil
		}
	}
	return "", core.ErrNotFound
}

// EnsureSingleFile always downloads the named file. An archive is extracted
// and its first member becomes the result. The result is not checked for existence.
func (a *Acquirer) EnsureSingleFile(ctx context.Context, ref core.DatasetReference) (core.LocalArtifact, error) {
	if ref.File == "" {
		return core.LocalArtifact{}, fmt.Errorf("dataset reference %s does not name a file", ref)
	}

	if err := a.Remote.DownloadFile(ctx, ref.String(), ref.File, a.Fs, workDir, false); err != nil {
		return core.LocalArtifact{}, err
	}

	name := filepath.Base(ref.File)
	if !core.IsArchive(name) {
		return core.NewArtifact(name), nil
	}

	members, err := archive.Extract(a.Fs, name, workDir)
	if err != nil {
		return core.LocalArtifact{}, err
	}
	if len(members) == 0 {
		return core.LocalArtifact{}, &core.ArchiveError{Path: name, Err: fmt.Errorf("archive is empty")}
	}
	return core.NewArtifact(members[0]), nil
}

// LoadTable reads the artifact with the reader matching its format
func (a *Acquirer) LoadTable(ctx context.Context, artifact core.LocalArtifact, opts table.ReadOptions) (*table.Table, error) {
	f, err := a.Fs.Open(artifact.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	core.Debugf(ctx, "Loading %s as %s", artifact.Path, artifact.Format)
	switch artifact.Format {
	case core.FormatCSV:
		return table.ReadCSV(f, opts)
	case core.FormatSpreadsheet:
		return table.ReadSpreadsheet(f, opts)
	}
	return nil, fmt.Errorf("cannot load %s: unsupported format %s", artifact.Path, artifact.Format)
}
