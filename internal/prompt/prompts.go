package prompt

import (
	"fmt"

	"nextup/internal/media"
)

// taskTemplate is the opening instruction for every kind. %s is the kind and
// %s the JSON shape the reply must follow.
const taskTemplate = `You are a recommendation assistant. Suggest exactly one %s the user is likely to enjoy next.

Base the suggestion on the history below: lean toward what the user liked, avoid what they disliked or skipped, and never repeat anything already listed.

You must respond ONLY with a JSON object like:
%s`

// baselineText frames the history block shared by every kind.
const baselineText = `Keep "reason" to one or two sentences that mention the history when it is relevant. Use "primary_genre" for a single genre label.

Previously suggested (with the user's reaction):`

// emptyHistory is appended when nothing has been suggested yet.
const emptyHistory = "- none yet"

// InvalidResponseNotice opens the repair follow-up round.
const InvalidResponseNotice = "Your previous response was not a valid suggestion. It is repeated below."

// JSONOnlyInstruction closes the repair follow-up round.
const JSONOnlyInstruction = "Return a single valid JSON object in the requested shape. No prose, no markdown, no code fences."

var shapes = map[media.Kind]string{
	media.KindSong:  `{"title": "...", "artist": "...", "album": "...", "primary_genre": "...", "reason": "..."}`,
	media.KindMovie: `{"title": "...", "director": "...", "year": "...", "primary_genre": "...", "reason": "..."}`,
	media.KindBook:  `{"title": "...", "author": "...", "primary_genre": "...", "reason": "..."}`,
	media.KindShow:  `{"title": "...", "creator": "...", "primary_genre": "...", "reason": "..."}`,
	media.KindGame:  `{"title": "...", "developer": "...", "platform": "...", "primary_genre": "...", "reason": "..."}`,
}

// Task returns the default task text for kind.
func Task(kind media.Kind) string {
	return fmt.Sprintf(taskTemplate, kind, shapes[kind])
}

// Baseline returns the default baseline text for kind.
func Baseline(media.Kind) string {
	return baselineText
}
