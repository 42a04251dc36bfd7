package session_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextup/internal/media"
	"nextup/internal/services"
	"nextup/internal/session"
)

func fixedClock() time.Time { return time.Unix(1_700_000_000, 0) }

func newMovies(t *testing.T, dir string) *session.Manager[media.Movie] {
	t.Helper()
	return session.NewManager[media.Movie](dir, session.WithClock(fixedClock))
}

func TestGetOrCreateSessionPersistsNewDocument(t *testing.T) {
	dir := t.TempDir()
	mgr := newMovies(t, dir)

	doc := mgr.GetOrCreateSession("alice", "task", "baseline")
	require.NotNil(t, doc)
	assert.Equal(t, "alice_movie", doc.Key)
	assert.Equal(t, session.PrimeDirective{Task: "task", Baseline: "baseline"}, doc.PrimeDirective)
	assert.Empty(t, doc.Suggestions)

	_, err := os.Stat(filepath.Join(dir, "alice_movie.json"))
	assert.NoError(t, err)

	again := mgr.GetOrCreateSession("alice", "other task", "other baseline")
	assert.Equal(t, "task", again.PrimeDirective.Task, "existing document keeps its directive")
}

func TestAddSuggestionIsIdempotentUnderKey(t *testing.T) {
	mgr := newMovies(t, t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "task", "baseline")

	first := session.NewRecord(media.Movie{Title: "Arrival", Director: "Denis Villeneuve", Year: "2016"}, "sci-fi", "cerebral")
	require.NoError(t, mgr.AddSuggestion(doc, first, nil, nil))
	require.Len(t, doc.Suggestions, 1)
	before := doc.Suggestions[first.Key()]

	dupe := session.NewRecord(media.Movie{Title: " arrival", Director: "DENIS VILLENEUVE!", Year: "2016"}, "drama", "again")
	for _, cmp := range []session.Comparator[media.Movie]{nil, session.KeyComparator[media.Movie]} {
		err := mgr.AddSuggestion(doc, dupe, cmp, nil)
		require.ErrorIs(t, err, services.ErrDuplicateSuggestion)
	}

	// A comparator that never matches still cannot overwrite an occupied key.
	never := func(_, _ session.Record[media.Movie]) bool { return false }
	err := mgr.AddSuggestion(doc, dupe, never, nil)
	require.ErrorIs(t, err, services.ErrDuplicateSuggestion)

	fresh := mgr.GetOrCreateSession("alice", "", "")
	assert.Len(t, fresh.Suggestions, 1)
	assert.Equal(t, before, fresh.Suggestions[first.Key()])
}

func TestAddSuggestionRejectsEmptyKey(t *testing.T) {
	mgr := newMovies(t, t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "", "")
	err := mgr.AddSuggestion(doc, session.NewRecord(media.Movie{Title: "!!!"}, "", ""), nil, nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUpdateSuggestionOutcome(t *testing.T) {
	dir := t.TempDir()
	mgr := newMovies(t, dir)
	doc := mgr.GetOrCreateSession("alice", "task", "baseline")
	rec := session.NewRecord(media.Movie{Title: "Heat", Director: "Michael Mann", Year: "1995"}, "crime", "tense")
	require.NoError(t, mgr.AddSuggestion(doc, rec, nil, nil))
	key := rec.Key()

	require.NoError(t, mgr.UpdateSuggestionOutcome(doc, key, session.OutcomeLiked))
	assert.Equal(t, session.OutcomeLiked, doc.Suggestions[key].UserOutcome)

	reloaded := newMovies(t, dir).GetOrCreateSession("alice", "", "")
	got := reloaded.Suggestions[key]
	assert.Equal(t, session.OutcomeLiked, got.UserOutcome)
	assert.Equal(t, fixedClock().Unix(), got.RespondedAt)
	got.UserOutcome = rec.UserOutcome
	got.RespondedAt = rec.RespondedAt
	assert.Equal(t, rec, got, "other fields unchanged")

	require.NoError(t, mgr.UpdateSuggestionOutcome(doc, key, session.OutcomeDisliked))
	assert.Equal(t, session.OutcomeDisliked, doc.Suggestions[key].UserOutcome)
}

func TestUpdateSuggestionOutcomeUnknownKey(t *testing.T) {
	mgr := newMovies(t, t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "", "")
	err := mgr.UpdateSuggestionOutcome(doc, "missing", session.OutcomeSkipped)
	assert.ErrorIs(t, err, services.ErrSuggestionNotFound)

	err = mgr.UpdateSuggestionOutcome(doc, "missing", session.Outcome("meh"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr := session.NewManager[media.Song](dir, session.WithClock(fixedClock))
	doc := mgr.GetOrCreateSession("bob", "task", "baseline")
	require.NoError(t, mgr.AddSuggestion(doc, session.NewRecord(media.Song{Title: "Lithium", Artist: "Nirvana", Album: "Nevermind"}, "grunge", "classic"), nil, nil))
	require.NoError(t, mgr.AddSuggestion(doc, session.NewRecord(media.Song{Title: "Creep", Artist: "Radiohead", Album: "Pablo Honey", ArtworkPath: "/art.jpg"}, "alt", "moody"), nil, nil))
	require.NoError(t, mgr.SetUserConstraints(doc, []string{" no rap ", "", "90s only"}))
	require.NoError(t, mgr.UpdateSuggestionOutcome(doc, doc.SortedKeys()[0], session.OutcomeSkipped))

	reloaded := session.NewManager[media.Song](dir).GetOrCreateSession("bob", "ignored", "ignored")
	assert.Equal(t, doc, reloaded)
	assert.Equal(t, []string{"no rap", "90s only"}, reloaded.UserConstraints)
}

func TestSnapshotsAreIsolated(t *testing.T) {
	mgr := newMovies(t, t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "", "")
	doc.Suggestions["forged"] = session.NewRecord(media.Movie{Title: "Forged"}, "", "")
	doc.UserConstraints = append(doc.UserConstraints, "tampered")

	fresh := mgr.GetOrCreateSession("alice", "", "")
	assert.Empty(t, fresh.Suggestions)
	assert.Empty(t, fresh.UserConstraints)
}

func TestCorruptFileFallsBackToNewSession(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice_book.json"), []byte("{not json"), 0o644))

	mgr := session.NewManager[media.Book](dir)
	doc := mgr.GetOrCreateSession("alice", "task", "baseline")
	require.NotNil(t, doc)
	assert.Equal(t, "task", doc.PrimeDirective.Task)
	assert.Empty(t, doc.Suggestions)
}

func TestLookupWarnsOnceForCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alice_book.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mgr := session.NewManager[media.Book](dir, session.WithLogger(logger))

	for range 3 {
		doc, ok := mgr.Lookup("alice")
		assert.False(t, ok)
		assert.Nil(t, doc)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "session_load_failed"))

	doc := mgr.GetOrCreateSession("alice", "task", "baseline")
	require.NotNil(t, doc)
	found, ok := mgr.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "task", found.PrimeDirective.Task)
}

func TestSaveFailureRollsBack(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	dir := t.TempDir()
	mgr := newMovies(t, dir)
	doc := mgr.GetOrCreateSession("alice", "", "")
	rec := session.NewRecord(media.Movie{Title: "Alien", Director: "Ridley Scott", Year: "1979"}, "", "")
	require.NoError(t, mgr.AddSuggestion(doc, rec, nil, nil))

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := mgr.AddSuggestion(doc, session.NewRecord(media.Movie{Title: "Aliens", Director: "James Cameron", Year: "1986"}, "", ""), nil, nil)
	require.ErrorIs(t, err, services.ErrPersistence)
	err = mgr.UpdateSuggestionOutcome(doc, rec.Key(), session.OutcomeLiked)
	require.ErrorIs(t, err, services.ErrPersistence)

	fresh := mgr.GetOrCreateSession("alice", "", "")
	assert.Len(t, fresh.Suggestions, 1)
	assert.Equal(t, session.OutcomePending, fresh.Suggestions[rec.Key()].UserOutcome)
}

func TestConcurrentAddsAreLinearized(t *testing.T) {
	mgr := newMovies(t, t.TempDir())
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := mgr.GetOrCreateSession("alice", "", "")
			errs <- mgr.AddSuggestion(doc, session.NewRecord(media.Movie{Title: "Solaris", Director: "Andrei Tarkovsky", Year: "1972"}, "", ""), nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, services.ErrDuplicateSuggestion)
		dup++
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, dup)
}

func TestSessionsFor(t *testing.T) {
	s := session.NewSessions(t.TempDir())
	assert.Same(t, s.Books, session.For[media.Book](s))
	assert.Same(t, s.Games, session.For[media.Game](s))
	assert.Equal(t, media.KindShow, session.For[media.Show](s).Kind())
}

func TestParseOutcome(t *testing.T) {
	got, err := session.ParseOutcome(" Liked ")
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeLiked, got)
	_, err = session.ParseOutcome("loved")
	assert.ErrorIs(t, err, services.ErrValidation)
}
