package assistant_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextup/internal/assistant"
	"nextup/internal/config"
	"nextup/internal/library"
	"nextup/internal/media"
	"nextup/internal/prompt"
	"nextup/internal/services"
	"nextup/internal/services/llm"
	"nextup/internal/session"
)

const heatReply = `{"title":"Heat","director":"Michael Mann","year":"1995","primary_genre":"crime","reason":"tense and patient"}`

type scriptedTransport struct {
	mu        sync.Mutex
	replies   []string
	calls     [][]llm.Message
	models    []string
	healthErr error
}

func (s *scriptedTransport) Chat(_ context.Context, messages []llm.Message, model string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, messages)
	s.models = append(s.models, model)
	if len(s.replies) == 0 {
		return "", services.ErrTransport
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedTransport) HealthCheck(context.Context) error {
	return s.healthErr
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Profile.User = "alice"
	cfg.LLM.Model = "main-model"
	cfg.LLM.APIKey = "test-key"
	return &cfg
}

func newAssistant(t *testing.T, cfg *config.Config, transport assistant.Transport, opts ...assistant.Option) *assistant.Assistant {
	t.Helper()
	opts = append([]assistant.Option{assistant.WithTransport(transport)}, opts...)
	a, err := assistant.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNextRecordsSuggestion(t *testing.T) {
	transport := &scriptedTransport{replies: []string{"```json\n" + heatReply + "\n```"}}
	a := newAssistant(t, testConfig(t), transport)
	movies := assistant.ServiceFor[media.Movie](a)

	rec, err := movies.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Heat", rec.Content.Title)
	assert.Equal(t, "crime", rec.PrimaryGenre)
	assert.Equal(t, session.OutcomePending, rec.UserOutcome)

	doc := movies.Session()
	require.Equal(t, 1, doc.Len())
	assert.Contains(t, doc.Suggestions, rec.Key())

	require.Len(t, transport.calls, 1)
	assert.Equal(t, []string{"main-model"}, transport.models)
	assert.Equal(t, llm.RoleSystem, transport.calls[0][0].Role)
}

func TestNextRepairsUnreadableReply(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.RepairModel = "repair-model"
	transport := &scriptedTransport{replies: []string{"I think you would enjoy Heat.", heatReply}}
	a := newAssistant(t, cfg, transport)

	rec, err := assistant.ServiceFor[media.Movie](a).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Michael Mann", rec.Content.Director)

	require.Len(t, transport.calls, 2)
	assert.Equal(t, []string{"main-model", "repair-model"}, transport.models)
	followup := transport.calls[1]
	require.Len(t, followup, len(transport.calls[0])+3)
	assert.Equal(t, llm.Assistant("I think you would enjoy Heat."), followup[len(followup)-2])
	assert.Equal(t, llm.User(prompt.JSONOnlyInstruction), followup[len(followup)-1])
}

func TestNextWithoutRepairsSurfacesMalformed(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.MaxRepairs = 0
	transport := &scriptedTransport{replies: []string{"no suggestion today"}}
	a := newAssistant(t, cfg, transport)

	_, err := assistant.ServiceFor[media.Movie](a).Next(context.Background())
	require.ErrorIs(t, err, services.ErrMalformedResponse)
	assert.Len(t, transport.calls, 1)
	assert.Equal(t, 0, assistant.ServiceFor[media.Movie](a).Session().Len())
}

func TestNextSurfacesDuplicateWithCandidate(t *testing.T) {
	transport := &scriptedTransport{replies: []string{heatReply, heatReply}}
	a := newAssistant(t, testConfig(t), transport)
	movies := assistant.ServiceFor[media.Movie](a)

	_, err := movies.Next(context.Background())
	require.NoError(t, err)
	rec, err := movies.Next(context.Background())
	require.ErrorIs(t, err, services.ErrDuplicateSuggestion)
	assert.Equal(t, "Heat", rec.Content.Title)
	assert.Equal(t, 1, movies.Session().Len())
}

func TestNextDoesNotRepairTransportFailures(t *testing.T) {
	transport := &scriptedTransport{}
	a := newAssistant(t, testConfig(t), transport)

	_, err := assistant.ServiceFor[media.Game](a).Next(context.Background())
	require.ErrorIs(t, err, services.ErrTransport)
	assert.Len(t, transport.calls, 1)
}

func TestRecordOutcomeUpdatesSessionAndJournal(t *testing.T) {
	clk := &clock{now: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
	transport := &scriptedTransport{replies: []string{heatReply}}
	a := newAssistant(t, testConfig(t), transport, assistant.WithClock(clk.Now))
	movies := assistant.ServiceFor[media.Movie](a)

	rec, err := movies.Next(context.Background())
	require.NoError(t, err)

	updated, err := movies.RecordOutcome(context.Background(), rec.Key(), session.OutcomeLiked)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeLiked, updated.UserOutcome)
	assert.Equal(t, clk.Now().Unix(), updated.RespondedAt)
	assert.Equal(t, session.OutcomeLiked, movies.Session().Suggestions[rec.Key()].UserOutcome)

	events, err := a.FeedbackEvents(context.Background(), "movie", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].User)
	assert.Equal(t, "Heat", events[0].Title)
	assert.Equal(t, "liked", events[0].Outcome)
}

func TestRecordOutcomeUnknownKey(t *testing.T) {
	a := newAssistant(t, testConfig(t), &scriptedTransport{})
	_, err := assistant.ServiceFor[media.Book](a).RecordOutcome(context.Background(), "missing", session.OutcomeSkipped)
	require.ErrorIs(t, err, services.ErrSuggestionNotFound)
}

func TestFeedbackEventsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeedbackLog.Enabled = false
	a := newAssistant(t, cfg, &scriptedTransport{})
	_, err := a.FeedbackEvents(context.Background(), "", 0)
	require.ErrorIs(t, err, services.ErrConfiguration)
}

func TestConstraintsBecomeUserMessages(t *testing.T) {
	a := newAssistant(t, testConfig(t), &scriptedTransport{})
	songs := assistant.ServiceFor[media.Song](a)

	stored, err := songs.SetConstraints([]string{" no rap ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"no rap"}, stored)

	messages := songs.Compose(songs.Session())
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.User("no rap"), messages[1])
	assert.Equal(t, []string{"no rap"}, songs.Constraints())
}

func TestHistoryOrderedByResponseTime(t *testing.T) {
	clk := &clock{now: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
	transport := &scriptedTransport{replies: []string{
		`{"title":"Dune","author":"Frank Herbert","primary_genre":"sf"}`,
		`{"title":"Emma","author":"Jane Austen","primary_genre":"classic"}`,
		`{"title":"Beloved","author":"Toni Morrison","primary_genre":"literary"}`,
	}}
	a := newAssistant(t, testConfig(t), transport, assistant.WithClock(clk.Now))
	books := assistant.ServiceFor[media.Book](a)

	var keys []string
	for range 3 {
		rec, err := books.Next(context.Background())
		require.NoError(t, err)
		keys = append(keys, rec.Key())
	}
	_, err := books.RecordOutcome(context.Background(), keys[1], session.OutcomeLiked)
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = books.RecordOutcome(context.Background(), keys[0], session.OutcomeDisliked)
	require.NoError(t, err)

	history := books.History()
	require.Len(t, history, 3)
	assert.Equal(t, "Beloved", history[0].Content.Title, "unanswered first")
	assert.Equal(t, "Emma", history[1].Content.Title)
	assert.Equal(t, "Dune", history[2].Content.Title)
}

func TestResolveKey(t *testing.T) {
	transport := &scriptedTransport{replies: []string{heatReply}}
	a := newAssistant(t, testConfig(t), transport)
	movies := assistant.ServiceFor[media.Movie](a)
	rec, err := movies.Next(context.Background())
	require.NoError(t, err)

	for _, ref := range []string{rec.Key(), "Heat Michael Mann 1995", "heat"} {
		key, err := movies.ResolveKey(ref)
		require.NoError(t, err, ref)
		assert.Equal(t, rec.Key(), key)
	}
	_, err = movies.ResolveKey("Ronin")
	require.ErrorIs(t, err, services.ErrSuggestionNotFound)
}

func TestKindServiceLists(t *testing.T) {
	a := newAssistant(t, testConfig(t), &scriptedTransport{})
	books, err := a.For(media.KindBook)
	require.NoError(t, err)

	item, added, err := books.AddItem(library.Favorites, media.Fields{"title": "Dune", "artist": "Frank Herbert"})
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Frank Herbert", item.Fields["author"])

	_, added, err = books.AddItem(library.Favorites, media.Fields{"title": "dune", "author": "frank herbert"})
	require.NoError(t, err)
	assert.False(t, added)

	items, err := books.Items(library.Favorites)
	require.NoError(t, err)
	require.Len(t, items, 1)
	queued, err := books.Items(library.Queue)
	require.NoError(t, err)
	assert.Empty(t, queued)

	_, err = books.RemoveItem(library.Favorites, media.Fields{"title": "Dune", "author": "Frank Herbert"})
	require.NoError(t, err)
	_, err = books.RemoveItem(library.Favorites, media.Fields{"title": "Dune", "author": "Frank Herbert"})
	require.ErrorIs(t, err, services.ErrItemNotFound)

	_, _, err = books.AddItem("wishlist", media.Fields{"title": "Dune"})
	require.ErrorIs(t, err, services.ErrValidation)
	_, _, err = books.AddItem(library.Queue, media.Fields{"author": "Nobody"})
	require.ErrorIs(t, err, services.ErrValidation)

	songs, err := a.For(media.KindSong)
	require.NoError(t, err)
	_, _, err = songs.AddItem(library.Favorites, media.Fields{"title": "Hurt"})
	require.ErrorIs(t, err, services.ErrUnsupportedKind)
}

func TestSettingsProviderSelectsTransport(t *testing.T) {
	var (
		mu       sync.Mutex
		built    []config.LLM
		fallback = &scriptedTransport{replies: []string{heatReply}}
	)
	factory := func(cfg config.LLM) (assistant.Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		built = append(built, cfg)
		return fallback, nil
	}
	a, err := assistant.New(testConfig(t), assistant.WithTransportFactory(factory))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.SetSetting("provider", "deepseek")
	require.NoError(t, err)
	_, err = a.SetSetting("models.movie", "deepseek-reasoner")
	require.NoError(t, err)

	_, err = assistant.ServiceFor[media.Movie](a).Next(context.Background())
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, config.ProviderDeepSeek, built[0].Provider)
	assert.Equal(t, []string{"deepseek-reasoner"}, fallback.models)

	require.NoError(t, a.HealthCheck(context.Background()))
	assert.Len(t, built, 1, "transports are cached per provider")
}

func TestHealthCheckReportsTransportError(t *testing.T) {
	a := newAssistant(t, testConfig(t), &scriptedTransport{healthErr: services.ErrTransport})
	require.ErrorIs(t, a.HealthCheck(context.Background()), services.ErrTransport)
}

func TestDefaultFactoryRequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.APIKey = ""
	a, err := assistant.New(cfg)
	require.NoError(t, err)
	defer a.Close()
	require.ErrorIs(t, a.HealthCheck(context.Background()), services.ErrConfiguration)
}

func TestForUnknownKind(t *testing.T) {
	a := newAssistant(t, testConfig(t), &scriptedTransport{})
	_, err := a.For(media.Kind("podcast"))
	require.ErrorIs(t, err, services.ErrUnsupportedKind)
}
