package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"nas-media-catalog/internal/filesystem"
	"nas-media-catalog/internal/logging"
)

// ErrExportDisabled is returned by a nil Exporter.
var ErrExportDisabled = errors.New("playlist export is disabled")

// Exporter writes playlist documents into a directory, typically one shared
// with the machines running VLC.
type Exporter struct {
	dir string
}

// NewExporter creates dir if needed. An empty dir disables export and
// returns a nil Exporter.
func NewExporter(dir string) (*Exporter, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// Dir returns the export directory.
func (e *Exporter) Dir() string {
	if e == nil {
		return ""
	}
	return e.dir
}

// Export atomically writes doc to its suggested filename inside the export
// directory, replacing any previous export of the same playlist name.
func (e *Exporter) Export(doc *Document) (string, error) {
	if e == nil {
		return "", ErrExportDisabled
	}

	target := filepath.Join(e.dir, filepath.Base(doc.Filename))
	if err := filesystem.WriteFile(target, doc.Body, 0o644, filesystem.DefaultRetryConfig()); err != nil {
		return "", fmt.Errorf("write playlist %q: %w", doc.Filename, err)
	}

	logging.Info("Exported playlist %q to %s (%d entries)", doc.Name, target, doc.Entries)
	return target, nil
}
