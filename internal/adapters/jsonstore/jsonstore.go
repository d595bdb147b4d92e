// Package jsonstore persists application state as single JSON documents
// replaced atomically on disk: writes go to a temp file in the same
// directory followed by a rename, so a reader never observes a partial
// document. Every store serializes its own read-modify-write with a mutex.
package jsonstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "tmp_*")
	if err != nil {
		return &domain.PersistenceError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Path: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Path: path, Err: err}
	}
	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// readDocument decodes path into v. A missing or corrupt file reports
// ok=false so stores can fall back to their empty document.
func readDocument(path string, v any) (ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
