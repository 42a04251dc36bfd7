package session

import (
	"errors"
	"path/filepath"

	"nextup/internal/fileutil"
	"nextup/internal/services"
	"nextup/internal/textutil"
)

// path returns the file holding the document with key.
func (m *Manager[V]) path(key string) string {
	return filepath.Join(m.dir, textutil.SanitizeToken(key)+".json")
}

// load reads a document from disk. A missing file returns fileutil.ErrNotExist.
func (m *Manager[V]) load(key string) (*Document[V], error) {
	var doc Document[V]
	if err := fileutil.ReadJSON(m.path(key), &doc); err != nil {
		if errors.Is(err, fileutil.ErrNotExist) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrPersistence, "session", "load", key, err)
	}
	doc.repair(key)
	return &doc, nil
}

// save overwrites the document file atomically.
func (m *Manager[V]) save(doc *Document[V]) error {
	if err := fileutil.WriteJSONAtomic(m.path(doc.Key), doc); err != nil {
		return services.Wrap(services.ErrPersistence, "session", "save", doc.Key, err)
	}
	return nil
}
