// Package prompt turns a session document into the ordered chat transcript
// sent to the model and owns the default prompt text.
package prompt

import (
	"strings"

	"nextup/internal/media"
	"nextup/internal/services/llm"
	"nextup/internal/session"
)

// Compose builds the transcript for doc: one system message holding the task,
// the baseline and one history line per record (ordered by key), followed by
// one user message per constraint in order.
func Compose[V media.Variant[V]](doc *session.Document[V]) []llm.Message {
	if doc == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(doc.PrimeDirective.Task))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(doc.PrimeDirective.Baseline))
	b.WriteByte('\n')
	if len(doc.Suggestions) == 0 {
		b.WriteString(emptyHistory)
	}
	for i, key := range doc.SortedKeys() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(HistoryLine(doc.Suggestions[key]))
	}

	messages := make([]llm.Message, 0, 1+len(doc.UserConstraints))
	messages = append(messages, llm.System(b.String()))
	for _, constraint := range doc.UserConstraints {
		messages = append(messages, llm.User(constraint))
	}
	return messages
}

// HistoryLine renders one record as "- <summary> | genre: <g> | outcome: <o>".
func HistoryLine[V media.Variant[V]](rec session.Record[V]) string {
	genre := strings.TrimSpace(rec.PrimaryGenre)
	if genre == "" {
		genre = "unknown"
	}
	outcome := rec.UserOutcome
	if outcome == "" {
		outcome = session.OutcomePending
	}
	return "- " + rec.Content.Summary() + " | genre: " + genre + " | outcome: " + string(outcome)
}

// Followup extends messages with the repair round for a previous raw reply.
func Followup(messages []llm.Message, previousRaw string) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+3)
	out = append(out, messages...)
	out = append(out,
		llm.User(InvalidResponseNotice),
		llm.Assistant(previousRaw),
		llm.User(JSONOnlyInstruction),
	)
	return out
}
