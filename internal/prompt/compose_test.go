package prompt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextup/internal/media"
	"nextup/internal/prompt"
	"nextup/internal/services/llm"
	"nextup/internal/session"
)

func TestComposeWithHistoryAndConstraint(t *testing.T) {
	mgr := session.NewManager[media.Song](t.TempDir())
	doc := mgr.GetOrCreateSession("alice", prompt.Task(media.KindSong), prompt.Baseline(media.KindSong))

	liked := session.NewRecord(media.Song{Title: "Lithium", Artist: "Nirvana", Album: "Nevermind"}, "grunge", "")
	skipped := session.NewRecord(media.Song{Title: "Creep", Artist: "Radiohead", Album: "Pablo Honey"}, "alt rock", "")
	require.NoError(t, mgr.AddSuggestion(doc, liked, nil, nil))
	require.NoError(t, mgr.AddSuggestion(doc, skipped, nil, nil))
	require.NoError(t, mgr.UpdateSuggestionOutcome(doc, liked.Key(), session.OutcomeLiked))
	require.NoError(t, mgr.UpdateSuggestionOutcome(doc, skipped.Key(), session.OutcomeSkipped))
	require.NoError(t, mgr.SetUserConstraints(doc, []string{"no rap"}))

	messages := prompt.Compose(doc)
	require.Len(t, messages, 2)
	assert.Equal(t, llm.RoleSystem, messages[0].Role)
	assert.Equal(t, llm.User("no rap"), messages[1])

	system := messages[0].Content
	assert.True(t, strings.HasPrefix(system, prompt.Task(media.KindSong)+"\n\n"+prompt.Baseline(media.KindSong)))
	assert.Contains(t, system, `- "Lithium" by Nirvana (Nevermind) | genre: grunge | outcome: liked`)
	assert.Contains(t, system, `- "Creep" by Radiohead (Pablo Honey) | genre: alt rock | outcome: skipped`)
	// Records are ordered by key: "creep..." sorts before "lithium...".
	assert.Less(t, strings.Index(system, "Creep"), strings.Index(system, "Lithium"))
}

func TestComposeEmptyHistory(t *testing.T) {
	mgr := session.NewManager[media.Book](t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "task", "baseline")

	messages := prompt.Compose(doc)
	require.Len(t, messages, 1)
	assert.Equal(t, "task\n\nbaseline\n- none yet", messages[0].Content)
}

func TestComposeIsDeterministic(t *testing.T) {
	mgr := session.NewManager[media.Movie](t.TempDir())
	doc := mgr.GetOrCreateSession("alice", "task", "baseline")
	for _, title := range []string{"Heat", "Alien", "Solaris", "Brazil"} {
		require.NoError(t, mgr.AddSuggestion(doc, session.NewRecord(media.Movie{Title: title}, "", ""), nil, nil))
	}
	first := prompt.Compose(doc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, prompt.Compose(doc))
	}
	assert.Contains(t, first[0].Content, `"Heat" | genre: unknown | outcome: pending`)
}

func TestFollowupAppendsRepairRound(t *testing.T) {
	base := []llm.Message{llm.System("sys"), llm.User("no rap")}
	out := prompt.Followup(base, "not json at all")
	require.Len(t, out, 5)
	assert.Equal(t, base, out[:2])
	assert.Equal(t, llm.User(prompt.InvalidResponseNotice), out[2])
	assert.Equal(t, llm.Assistant("not json at all"), out[3])
	assert.Equal(t, llm.User(prompt.JSONOnlyInstruction), out[4])
	assert.Len(t, base, 2, "input slice is not modified")
}

func TestTaskEmbedsShape(t *testing.T) {
	for _, kind := range media.Kinds() {
		task := prompt.Task(kind)
		assert.Contains(t, task, string(kind))
		assert.Contains(t, task, `"title"`)
		assert.Contains(t, task, `"primary_genre"`)
	}
}
