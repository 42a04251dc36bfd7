// Package fileutil holds the flat-file document helpers shared by every
// on-disk store: whole-document JSON writes via temp file + rename, and reads
// that distinguish "absent" from "unreadable".
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// ErrNotExist is returned by ReadJSON when the document has never been written.
var ErrNotExist = fs.ErrNotExist

// WriteJSONAtomic marshals value as indented JSON and replaces path with it.
// The parent directory is created when missing. Readers never observe a
// partially written document.
func WriteJSONAtomic(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')
	return WriteFileAtomic(path, data, 0o644)
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadJSON decodes the document at path into target. A missing or empty file
// yields an error matching ErrNotExist; anything else that prevents decoding
// is returned wrapped.
func ReadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		return ErrNotExist
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return nil
}
