package library

import (
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"nextup/internal/fileutil"
	"nextup/internal/logging"
	"nextup/internal/media"
	"nextup/internal/services"
)

// List names.
const (
	Favorites = "favorites"
	Queue     = "queue"
)

// Collection is the persisted document behind one list.
type Collection struct {
	Movies []media.Movie `json:"movies"`
	Books  []media.Book  `json:"books"`
	Shows  []media.Show  `json:"shows"`
	Games  []media.Game  `json:"games"`
}

func (c *Collection) repair() {
	if c.Movies == nil {
		c.Movies = []media.Movie{}
	}
	if c.Books == nil {
		c.Books = []media.Book{}
	}
	if c.Shows == nil {
		c.Shows = []media.Show{}
	}
	if c.Games == nil {
		c.Games = []media.Game{}
	}
}

func (c *Collection) clone() Collection {
	return Collection{
		Movies: slices.Clone(c.Movies),
		Books:  slices.Clone(c.Books),
		Shows:  slices.Clone(c.Shows),
		Games:  slices.Clone(c.Games),
	}
}

// Store guards one list document.
type Store struct {
	name   string
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	doc    Collection
	loaded bool
}

// NewStore returns the store for list name ("favorites" or "queue") under userDir.
func NewStore(userDir, name string, logger *slog.Logger) *Store {
	return &Store{
		name:   name,
		path:   filepath.Join(userDir, name+".json"),
		logger: logging.NewComponentLogger(logger, "library").With(logging.String("list", name)),
	}
}

// Name reports the list name.
func (s *Store) Name() string {
	return s.name
}

// Snapshot returns a copy of the whole document.
func (s *Store) Snapshot() Collection {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.clone()
}

// List returns the items of kind V.
func List[V media.Variant[V]](s *Store) ([]V, error) {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, err := slot[V](&s.doc)
	if err != nil {
		return nil, err
	}
	return slices.Clone(*items), nil
}

// Add appends item unless an Equal item is present. It reports whether the
// list changed.
func Add[V media.Variant[V]](s *Store, item V) (bool, error) {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := slot[V](&s.doc)
	if err != nil {
		return false, err
	}
	if slices.ContainsFunc(*items, item.Equal) {
		return false, nil
	}
	previous := *items
	*items = append(slices.Clone(previous), item)
	if err := s.saveLocked(); err != nil {
		*items = previous
		return false, err
	}
	s.logger.Info("item added", logging.String(logging.FieldKind, string(item.Kind())), logging.String("summary", item.Summary()))
	return true, nil
}

// Remove deletes the Equal item, failing with ErrItemNotFound when absent.
func Remove[V media.Variant[V]](s *Store, item V) error {
	s.ensureLoaded()
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := slot[V](&s.doc)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(*items, item.Equal)
	if idx < 0 {
		return services.Wrap(services.ErrItemNotFound, "library", "remove", s.name+": "+item.Summary(), nil)
	}
	previous := *items
	*items = slices.Delete(slices.Clone(previous), idx, idx+1)
	if err := s.saveLocked(); err != nil {
		*items = previous
		return err
	}
	s.logger.Info("item removed", logging.String(logging.FieldKind, string(item.Kind())), logging.String("summary", item.Summary()))
	return nil
}

func slot[V media.Variant[V]](c *Collection) (*[]V, error) {
	var zero V
	var target any
	switch any(zero).(type) {
	case media.Movie:
		target = &c.Movies
	case media.Book:
		target = &c.Books
	case media.Show:
		target = &c.Shows
	case media.Game:
		target = &c.Games
	}
	items, ok := target.(*[]V)
	if !ok {
		return nil, services.Wrap(services.ErrUnsupportedKind, "library", "resolve list", string(zero.Kind())+" lists are not stored locally", nil)
	}
	return items, nil
}

func (s *Store) ensureLoaded() {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return
	}
	var doc Collection
	if err := fileutil.ReadJSON(s.path, &doc); err != nil && !errors.Is(err, fileutil.ErrNotExist) {
		logging.WarnWithContext(s.logger, "list load failed", "library_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "move "+s.path+" aside to keep its contents"),
			logging.String(logging.FieldImpact, "the list starts empty"),
		)
		doc = Collection{}
	}
	doc.repair()
	s.doc = doc
	s.loaded = true
}

func (s *Store) saveLocked() error {
	if err := fileutil.WriteJSONAtomic(s.path, s.doc); err != nil {
		return services.Wrap(services.ErrPersistence, "library", "save", s.name, err)
	}
	return nil
}
