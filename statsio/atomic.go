package statsio

import (
	"errors"
	"os"
	"path/filepath"

	"vi-tools/vegindex"
)

// atomicWrite hands fill a temporary file next to path and renames it into
// place only after fill succeeded and the data reached disk. On failure the
// temporary file is removed and path is left as it was.
func atomicWrite(path string, fill func(f *os.File) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := fill(tmp); err != nil {
		return &vegindex.WriteError{Path: path, Err: errors.Join(err, tmp.Close())}
	}
	if err := tmp.Sync(); err != nil {
		return &vegindex.WriteError{Path: path, Err: errors.Join(err, tmp.Close())}
	}
	if err := tmp.Close(); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &vegindex.WriteError{Path: path, Err: err}
	}
	return nil
}
