package core

import (
	"context"

	"github.com/spf13/afero"
)

// DatasetService defines the remote dataset hosting capabilities the
// acquirer depends on
type DatasetService interface {
	// DownloadDataset fetches the whole dataset as <name>.zip into dir on fs.
	// When unzip is set the archive is extracted in place as well.
	DownloadDataset(ctx context.Context, dataset string, fs afero.Fs, dir string, unzip bool) error

	// DownloadFile fetches a single named file of the dataset into dir on fs
	DownloadFile(ctx context.Context, dataset, file string, fs afero.Fs, dir string, unzip bool) error
}
