package assistant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"nextup/internal/library"
	"nextup/internal/logging"
	"nextup/internal/media"
	"nextup/internal/prompt"
	"nextup/internal/services"
	"nextup/internal/services/llm"
	"nextup/internal/session"
	"nextup/internal/suggest"
	"nextup/internal/textutil"
)

// Service is the typed API for content kind V.
type Service[V media.Variant[V]] struct {
	a       *Assistant
	manager *session.Manager[V]
	kind    media.Kind
}

// ServiceFor returns the service for variant type V.
func ServiceFor[V media.Variant[V]](a *Assistant) *Service[V] {
	return &Service[V]{
		a:       a,
		manager: session.For[V](a.sessions),
		kind:    media.KindOf[V](),
	}
}

// Kind reports the content kind served.
func (s *Service[V]) Kind() media.Kind {
	return s.kind
}

// Session returns a snapshot of the user's session, creating it with the
// default task and baseline on first use.
func (s *Service[V]) Session() *session.Document[V] {
	return s.manager.GetOrCreateSession(s.a.user, prompt.Task(s.kind), prompt.Baseline(s.kind))
}

// Compose builds the transcript for doc.
func (s *Service[V]) Compose(doc *session.Document[V]) []llm.Message {
	return prompt.Compose(doc)
}

// Request sends messages with the kind's model and parses the reply.
func (s *Service[V]) Request(ctx context.Context, messages []llm.Message) (suggest.Response[V], error) {
	st, err := s.a.settings.Load()
	if err != nil {
		return suggest.Response[V]{}, err
	}
	t, err := s.a.transport(st.Provider)
	if err != nil {
		return suggest.Response[V]{}, err
	}
	return suggest.Request[V](ctx, t, messages, st.ModelFor(s.kind))
}

// Repair runs one corrective round for previousRaw with the repair model.
func (s *Service[V]) Repair(ctx context.Context, messages []llm.Message, previousRaw string) (suggest.Response[V], error) {
	st, err := s.a.settings.Load()
	if err != nil {
		return suggest.Response[V]{}, err
	}
	t, err := s.a.transport(st.Provider)
	if err != nil {
		return suggest.Response[V]{}, err
	}
	return suggest.ErrorFollowup[V](ctx, t, messages, previousRaw, st.RepairModelFor(s.kind))
}

// Record stores resp in doc as a pending suggestion. The record is returned
// even when it is rejected as a duplicate.
func (s *Service[V]) Record(doc *session.Document[V], resp suggest.Response[V]) (session.Record[V], error) {
	rec := session.NewRecord(resp.Content, resp.PrimaryGenre, resp.Reason)
	if err := s.manager.AddSuggestion(doc, rec, nil, nil); err != nil {
		return rec, err
	}
	return rec, nil
}

// Next runs one full suggestion round: compose, request, up to
// llm.max_repairs follow-ups for unreadable replies, then record. Rounds of
// the same kind are serialized. A duplicate candidate is returned together
// with ErrDuplicateSuggestion.
func (s *Service[V]) Next(ctx context.Context) (session.Record[V], error) {
	lock := s.a.kindLocks[s.kind]
	lock.Lock()
	defer lock.Unlock()

	ctx = services.WithRequestID(services.WithUser(services.WithKind(ctx, string(s.kind)), s.a.user), uuid.NewString())
	logger := logging.WithContext(ctx, s.a.logger)

	doc := s.Session()
	messages := s.Compose(doc)
	resp, err := s.Request(ctx, messages)
	for attempt := 1; err != nil && attempt <= s.a.cfg.LLM.MaxRepairs; attempt++ {
		raw, ok := suggest.RawFromError(err)
		if !ok {
			break
		}
		logger.Info("requesting corrected reply", logging.Int("attempt", attempt), logging.Error(err))
		resp, err = s.Repair(ctx, messages, raw)
	}
	if err != nil {
		if errors.Is(err, services.ErrMalformedResponse) {
			logging.ErrorWithContext(logger, "model reply still unreadable", "suggestion_unreadable",
				logging.Int("repairs", s.a.cfg.LLM.MaxRepairs),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "try again or switch the model with `nextup settings set`"),
			)
		}
		return session.Record[V]{}, err
	}

	rec, err := s.Record(doc, resp)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateSuggestion) {
			logger.Info("model repeated a suggestion", logging.String(logging.FieldSuggestionKey, rec.Key()))
		}
		return rec, err
	}
	logger.Info("suggestion ready",
		logging.String(logging.FieldSuggestionKey, rec.Key()),
		logging.String("summary", rec.Content.Summary()),
	)
	return rec, nil
}

// ResolveKey maps ref to a stored record key. ref may be the key itself,
// text that normalizes to it, or a title matching exactly one record.
func (s *Service[V]) ResolveKey(ref string) (string, error) {
	doc := s.Session()
	if _, ok := doc.Suggestions[ref]; ok {
		return ref, nil
	}
	normalized := textutil.NormalizeKey(ref)
	if _, ok := doc.Suggestions[normalized]; ok {
		return normalized, nil
	}
	var matches []string
	for _, key := range doc.SortedKeys() {
		if textutil.NormalizeKey(doc.Suggestions[key].Content.Fields().Get("title")) == normalized {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", services.Wrap(services.ErrSuggestionNotFound, "assistant", "resolve", ref, nil)
	default:
		return "", fmt.Errorf("%w: %q matches %d suggestions; use one of %s", services.ErrValidation, ref, len(matches), strings.Join(matches, ", "))
	}
}

// RecordOutcome stores the user's reaction to the record under key and
// journals it.
func (s *Service[V]) RecordOutcome(ctx context.Context, key string, outcome session.Outcome) (session.Record[V], error) {
	doc := s.Session()
	if err := s.manager.UpdateSuggestionOutcome(doc, key, outcome); err != nil {
		return session.Record[V]{}, err
	}
	rec := doc.Suggestions[key]
	ctx = services.WithUser(services.WithKind(ctx, string(s.kind)), s.a.user)
	s.a.record(ctx, s.kind, key, rec.Content.Fields().Get("title"), outcome)
	return rec, nil
}

// Constraints returns the session's current constraints.
func (s *Service[V]) Constraints() []string {
	return s.Session().UserConstraints
}

// SetConstraints replaces the session's constraints and returns the stored
// list.
func (s *Service[V]) SetConstraints(constraints []string) ([]string, error) {
	doc := s.Session()
	if err := s.manager.SetUserConstraints(doc, constraints); err != nil {
		return nil, err
	}
	return doc.UserConstraints, nil
}

// History returns every record ordered by response time, unanswered records
// first, ties broken by key.
func (s *Service[V]) History() []session.Record[V] {
	doc := s.Session()
	records := make([]session.Record[V], 0, doc.Len())
	for _, key := range doc.SortedKeys() {
		records = append(records, doc.Suggestions[key])
	}
	slices.SortStableFunc(records, func(x, y session.Record[V]) int {
		switch {
		case x.RespondedAt < y.RespondedAt:
			return -1
		case x.RespondedAt > y.RespondedAt:
			return 1
		default:
			return 0
		}
	})
	return records
}

// Items lists kind V in the named list.
func (s *Service[V]) Items(list string) ([]V, error) {
	store, err := s.a.list(list)
	if err != nil {
		return nil, err
	}
	return library.List[V](store)
}

// AddItem appends item to the named list, reporting whether it was new.
func (s *Service[V]) AddItem(list string, item V) (bool, error) {
	store, err := s.a.list(list)
	if err != nil {
		return false, err
	}
	return library.Add(store, item)
}

// RemoveItem deletes item from the named list.
func (s *Service[V]) RemoveItem(list string, item V) error {
	store, err := s.a.list(list)
	if err != nil {
		return err
	}
	return library.Remove(store, item)
}
