package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gigapi/gigapi-accidents/core"
	"github.com/spf13/afero"
)

func openZip(fs afero.Fs, archivePath string) (*zip.Reader, afero.File, error) {
	f, err := fs.Open(archivePath)
	if err != nil {
		return nil, nil, &core.ArchiveError{Path: archivePath, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, &core.ArchiveError{Path: archivePath, Err: err}
	}
	zipReader, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, &core.ArchiveError{Path: archivePath, Err: err}
	}
	return zipReader, f, nil
}

// Members lists the entry names of the archive in archive order
func Members(fs afero.Fs, archivePath string) ([]string, error) {
	zipReader, f, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := make([]string, 0, len(zipReader.File))
	for _, zipFile := range zipReader.File {
		names = append(names, zipFile.Name)
	}
	return names, nil
}

func extractFile(fs afero.Fs, zipFile *zip.File, absPath string) error {
	rc, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := fs.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return err
	}
	file, err := fs.Create(absPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, rc)
	return err
}

// Extract unpacks the zip at archivePath into dir, overwriting existing
// files. It returns all member names in archive order.
func Extract(fs afero.Fs, archivePath, dir string) ([]string, error) {
	zipReader, f, err := openZip(fs, archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root := filepath.Clean(dir)
	names := make([]string, 0, len(zipReader.File))
	for _, zipFile := range zipReader.File {
		names = append(names, zipFile.Name)

		// rooting the name first keeps ".." entries inside dir
		absPath := filepath.Join(root, filepath.Clean("/"+zipFile.Name))
		if zipFile.FileInfo().IsDir() {
			if err := fs.MkdirAll(absPath, 0o755); err != nil {
				return nil, &core.ArchiveError{Path: archivePath, Err: err}
			}
			continue
		}
		if err := extractFile(fs, zipFile, absPath); err != nil {
			return nil, &core.ArchiveError{Path: archivePath, Err: fmt.Errorf("%s: %w", zipFile.Name, err)}
		}
	}
	return names, nil
}
