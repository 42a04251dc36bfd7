package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nextup/internal/fileutil"
	"nextup/internal/logging"
	"nextup/internal/media"
	"nextup/internal/services"
)

// Option customizes a Manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger routes manager diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for RespondedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Manager owns the session documents of one content kind. Lookups take the
// read lock; creation and mutations take the write lock.
type Manager[V media.Variant[V]] struct {
	dir    string
	kind   media.Kind
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	docs map[string]*Document[V]
	// unreadable holds keys whose file failed to parse; they are not read
	// again until GetOrCreateSession replaces them.
	unreadable map[string]struct{}
}

// NewManager returns a manager persisting documents under dir.
func NewManager[V media.Variant[V]](dir string, opts ...Option) *Manager[V] {
	cfg := options{logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	kind := media.KindOf[V]()
	logger := logging.NewComponentLogger(cfg.logger, "session").With(logging.String(logging.FieldKind, string(kind)))
	return &Manager[V]{
		dir:    dir,
		kind:   kind,
		logger: logger,
		now:    cfg.now,
		docs:   make(map[string]*Document[V]),

		unreadable: make(map[string]struct{}),
	}
}

// Kind reports the content kind this manager serves.
func (m *Manager[V]) Kind() media.Kind {
	return m.kind
}

// GetOrCreateSession returns a snapshot of the user's document, loading it
// from disk or creating it from task and baseline when absent. It never
// fails: unreadable files are logged and replaced by a fresh document, and a
// fresh document that cannot be saved is still returned.
func (m *Manager[V]) GetOrCreateSession(user, task, baseline string) *Document[V] {
	key := SessionKey(user, m.kind)

	m.mu.RLock()
	if doc, ok := m.docs[key]; ok {
		m.mu.RUnlock()
		return doc.clone()
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[key]; ok {
		return doc.clone()
	}
	if doc := m.loadLocked(key); doc != nil {
		return doc.clone()
	}

	doc := newDocument[V](key, task, baseline)
	m.docs[key] = doc
	delete(m.unreadable, key)
	if err := m.save(doc); err != nil {
		logging.WarnWithContext(m.logger, "session create not persisted", "session_save_failed",
			logging.String(logging.FieldSessionKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on "+m.dir),
			logging.String(logging.FieldImpact, "session lives in memory until the next successful save"),
		)
	} else {
		m.logger.Info("session created", logging.String(logging.FieldSessionKey, key))
	}
	return doc.clone()
}

// Lookup returns a snapshot of an existing document without creating one.
func (m *Manager[V]) Lookup(user string) (*Document[V], bool) {
	key := SessionKey(user, m.kind)

	m.mu.RLock()
	if doc, ok := m.docs[key]; ok {
		m.mu.RUnlock()
		return doc.clone(), true
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.docs[key]; ok {
		return doc.clone(), true
	}
	if doc := m.loadLocked(key); doc != nil {
		return doc.clone(), true
	}
	return nil, false
}

// AddSuggestion stores candidate in doc unless comparator matches an existing
// record or its key is already taken, in which case ErrDuplicateSuggestion is
// returned and nothing changes. Nil comparator and keyer select
// DefaultComparator and DefaultKeyer. On success doc is refreshed.
func (m *Manager[V]) AddSuggestion(doc *Document[V], candidate Record[V], comparator Comparator[V], keyer Keyer[V]) error {
	if comparator == nil {
		comparator = DefaultComparator[V]
	}
	if keyer == nil {
		keyer = DefaultKeyer[V]
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.currentLocked(doc)
	if err != nil {
		return err
	}

	for existingKey, existing := range current.Suggestions {
		if comparator(existing, candidate) {
			return duplicateError(existingKey, candidate)
		}
	}
	key := strings.TrimSpace(keyer(candidate))
	if key == "" {
		return services.Wrap(services.ErrValidation, "session", "add suggestion", "candidate has no identifying fields", nil)
	}
	if _, taken := current.Suggestions[key]; taken {
		return duplicateError(key, candidate)
	}
	if candidate.UserOutcome == "" {
		candidate.UserOutcome = OutcomePending
	}

	current.Suggestions[key] = candidate
	if err := m.save(current); err != nil {
		delete(current.Suggestions, key)
		return err
	}

	m.logger.Info("suggestion recorded",
		logging.String(logging.FieldSessionKey, current.Key),
		logging.String(logging.FieldSuggestionKey, key),
		logging.String("summary", candidate.Content.Summary()),
	)
	*doc = *current.clone()
	return nil
}

// UpdateSuggestionOutcome overwrites the outcome of the record stored under
// key and stamps RespondedAt. Any outcome may replace any other.
func (m *Manager[V]) UpdateSuggestionOutcome(doc *Document[V], key string, outcome Outcome) error {
	if !outcome.Valid() {
		return services.Wrap(services.ErrValidation, "session", "update outcome", fmt.Sprintf("unknown outcome %q", outcome), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.currentLocked(doc)
	if err != nil {
		return err
	}
	previous, ok := current.Suggestions[key]
	if !ok {
		return services.Wrap(services.ErrSuggestionNotFound, "session", "update outcome", key, nil)
	}

	updated := previous
	updated.UserOutcome = outcome
	updated.RespondedAt = m.now().Unix()
	current.Suggestions[key] = updated
	if err := m.save(current); err != nil {
		current.Suggestions[key] = previous
		return err
	}

	m.logger.Info("outcome recorded",
		logging.String(logging.FieldSessionKey, current.Key),
		logging.String(logging.FieldSuggestionKey, key),
		logging.String("outcome", string(outcome)),
	)
	*doc = *current.clone()
	return nil
}

// SetUserConstraints replaces the document's constraints. Entries are trimmed
// and empty ones dropped; order is kept.
func (m *Manager[V]) SetUserConstraints(doc *Document[V], constraints []string) error {
	cleaned := make([]string, 0, len(constraints))
	for _, c := range constraints {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.currentLocked(doc)
	if err != nil {
		return err
	}
	previous := current.UserConstraints
	current.UserConstraints = cleaned
	if err := m.save(current); err != nil {
		current.UserConstraints = previous
		return err
	}
	*doc = *current.clone()
	return nil
}

// currentLocked resolves the cached document behind the caller's snapshot.
// Uncached documents are reloaded from disk; a snapshot with no file behind
// it is adopted as-is.
func (m *Manager[V]) currentLocked(doc *Document[V]) (*Document[V], error) {
	if doc == nil || strings.TrimSpace(doc.Key) == "" {
		return nil, services.Wrap(services.ErrValidation, "session", "resolve", "nil or unkeyed session document", nil)
	}
	if current, ok := m.docs[doc.Key]; ok {
		return current, nil
	}
	if current := m.loadLocked(doc.Key); current != nil {
		return current, nil
	}
	adopted := doc.clone()
	adopted.repair(doc.Key)
	m.docs[doc.Key] = adopted
	return adopted, nil
}

// loadLocked reads key from disk into the cache. Read and parse failures are
// logged and reported as absent.
func (m *Manager[V]) loadLocked(key string) *Document[V] {
	if _, ok := m.unreadable[key]; ok {
		return nil
	}
	doc, err := m.load(key)
	if err != nil {
		if !errors.Is(err, fileutil.ErrNotExist) {
			m.unreadable[key] = struct{}{}
			logging.WarnWithContext(m.logger, "session load failed", "session_load_failed",
				logging.String(logging.FieldSessionKey, key),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "move "+m.path(key)+" aside to keep its contents"),
				logging.String(logging.FieldImpact, "a fresh session replaces the unreadable one"),
			)
		}
		return nil
	}
	m.docs[key] = doc
	m.logger.Debug("session loaded",
		logging.String(logging.FieldSessionKey, key),
		logging.Int("suggestions", len(doc.Suggestions)),
	)
	return doc
}

func duplicateError[V media.Variant[V]](key string, candidate Record[V]) error {
	return services.Wrap(services.ErrDuplicateSuggestion, "session", "add suggestion",
		fmt.Sprintf("%s already suggested (key %s)", candidate.Content.Summary(), key), nil)
}
