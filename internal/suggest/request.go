package suggest

import (
	"context"

	"nextup/internal/media"
	"nextup/internal/prompt"
	"nextup/internal/services/llm"
)

// Transport sends a transcript to a model and returns the reply text.
type Transport interface {
	Chat(ctx context.Context, messages []llm.Message, model string) (string, error)
}

// Request sends messages and parses the reply. Transport errors are returned
// unchanged; parse failures return *MalformedError with the raw reply, which
// is also kept on the returned Response.
func Request[V media.Variant[V]](ctx context.Context, transport Transport, messages []llm.Message, model string) (Response[V], error) {
	raw, err := transport.Chat(ctx, messages, model)
	if err != nil {
		return Response[V]{}, err
	}
	return Parse[V](raw)
}

// ErrorFollowup runs one corrective round: it tells the model its previous
// reply was invalid, replays that reply verbatim as an assistant message,
// asks for a single JSON object, and runs Request exactly once.
func ErrorFollowup[V media.Variant[V]](ctx context.Context, transport Transport, messages []llm.Message, previousRaw, model string) (Response[V], error) {
	return Request[V](ctx, transport, prompt.Followup(messages, previousRaw), model)
}
