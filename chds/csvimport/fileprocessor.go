package csvimport

import (
	"fmt"
	"io"
	"os"
	f "path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CSVFileProcessor abstracts where import files live so that the importer
// can be pointed at local directories in development and other storage in
// deployed environments.
type CSVFileProcessor interface {
	// Open the csv file to be imported. The returned reader streams the
	// file; the importer never buffers the whole file in memory.
	LoadCSV(path string) (io.ReadCloser, int64, error)
	// Remove a csv file that was successfully imported.
	CleanUpCSV(file csvFile) error
}

type csvFile struct {
	filepath string
	size     int64
	imported bool
}

// LocalFileProcessor serves import files from the local filesystem.
// Successfully imported files are moved into a pending-deletion directory
// rather than removed outright.
type LocalFileProcessor struct {
	Logger             logrus.FieldLogger
	PendingDeletionDir string
}

func (p *LocalFileProcessor) LoadCSV(path string) (io.ReadCloser, int64, error) {
	file, err := os.Open(f.Clean(path))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "could not open file %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, errors.Wrapf(err, "could not stat file %s", path)
	}
	return file, info.Size(), nil
}

func (p *LocalFileProcessor) CleanUpCSV(file csvFile) error {
	if !file.imported {
		p.Logger.Infof("File %s not imported, leaving in place.", file.filepath)
		return nil
	}
	if p.PendingDeletionDir == "" {
		p.Logger.Infof("No pending deletion directory configured, leaving %s in place.", file.filepath)
		return nil
	}

	newpath := fmt.Sprintf("%s/%s", p.PendingDeletionDir, f.Base(file.filepath))
	if err := os.Rename(file.filepath, newpath); err != nil {
		return errors.Wrapf(err, "file %s could not be moved to pending deletion dir", file.filepath)
	}
	p.Logger.Infof("Moved imported file %s to %s.", file.filepath, newpath)
	return nil
}
