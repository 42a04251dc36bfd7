package assistant

import (
	"context"
	"time"

	"nextup/internal/media"
	"nextup/internal/services"
	"nextup/internal/session"
	"nextup/internal/validation"
)

// Suggestion is a kind-erased view of a session record.
type Suggestion struct {
	Key         string          `json:"key"`
	Kind        media.Kind      `json:"kind"`
	Summary     string          `json:"summary"`
	Genre       string          `json:"primary_genre,omitempty"`
	Reason      string          `json:"reasoning,omitempty"`
	Outcome     session.Outcome `json:"user_outcome"`
	RespondedAt time.Time       `json:"responded_at"`
	Fields      media.Fields    `json:"content"`
}

// Item is a kind-erased list entry.
type Item struct {
	Key     string       `json:"key"`
	Kind    media.Kind   `json:"kind"`
	Summary string       `json:"summary"`
	Fields  media.Fields `json:"content"`
}

// KindService is Service[V] with the type parameter erased.
type KindService interface {
	Kind() media.Kind
	Next(ctx context.Context) (Suggestion, error)
	ResolveKey(ref string) (string, error)
	RecordOutcome(ctx context.Context, key string, outcome session.Outcome) (Suggestion, error)
	Constraints() []string
	SetConstraints(constraints []string) ([]string, error)
	History() []Suggestion
	Items(list string) ([]Item, error)
	AddItem(list string, fields media.Fields) (Item, bool, error)
	RemoveItem(list string, fields media.Fields) (Item, error)
}

// For returns the service for kind.
func (a *Assistant) For(kind media.Kind) (KindService, error) {
	switch kind {
	case media.KindSong:
		return kindService[media.Song]{ServiceFor[media.Song](a)}, nil
	case media.KindMovie:
		return kindService[media.Movie]{ServiceFor[media.Movie](a)}, nil
	case media.KindBook:
		return kindService[media.Book]{ServiceFor[media.Book](a)}, nil
	case media.KindShow:
		return kindService[media.Show]{ServiceFor[media.Show](a)}, nil
	case media.KindGame:
		return kindService[media.Game]{ServiceFor[media.Game](a)}, nil
	default:
		return nil, services.Wrap(services.ErrUnsupportedKind, "assistant", "select kind", string(kind), nil)
	}
}

type kindService[V media.Variant[V]] struct {
	svc *Service[V]
}

func (k kindService[V]) Kind() media.Kind {
	return k.svc.Kind()
}

func (k kindService[V]) Next(ctx context.Context) (Suggestion, error) {
	rec, err := k.svc.Next(ctx)
	if err != nil {
		if rec.Key() == "" {
			return Suggestion{}, err
		}
		return toSuggestion(rec), err
	}
	return toSuggestion(rec), nil
}

func (k kindService[V]) ResolveKey(ref string) (string, error) {
	return k.svc.ResolveKey(ref)
}

func (k kindService[V]) RecordOutcome(ctx context.Context, key string, outcome session.Outcome) (Suggestion, error) {
	rec, err := k.svc.RecordOutcome(ctx, key, outcome)
	if err != nil {
		return Suggestion{}, err
	}
	return toSuggestion(rec), nil
}

func (k kindService[V]) Constraints() []string {
	return k.svc.Constraints()
}

func (k kindService[V]) SetConstraints(constraints []string) ([]string, error) {
	return k.svc.SetConstraints(constraints)
}

func (k kindService[V]) History() []Suggestion {
	records := k.svc.History()
	out := make([]Suggestion, 0, len(records))
	for _, rec := range records {
		out = append(out, toSuggestion(rec))
	}
	return out
}

func (k kindService[V]) Items(list string) ([]Item, error) {
	items, err := k.svc.Items(list)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, toItem(item))
	}
	return out, nil
}

func (k kindService[V]) AddItem(list string, fields media.Fields) (Item, bool, error) {
	item, err := buildItem[V](fields)
	if err != nil {
		return Item{}, false, err
	}
	added, err := k.svc.AddItem(list, item)
	if err != nil {
		return Item{}, false, err
	}
	return toItem(item), added, nil
}

func (k kindService[V]) RemoveItem(list string, fields media.Fields) (Item, error) {
	item, err := buildItem[V](fields)
	if err != nil {
		return Item{}, err
	}
	if err := k.svc.RemoveItem(list, item); err != nil {
		return Item{}, err
	}
	return toItem(item), nil
}

func buildItem[V media.Variant[V]](fields media.Fields) (V, error) {
	item := media.FromFields[V](fields)
	if err := validation.Struct(item); err != nil {
		var zero V
		return zero, err
	}
	return item, nil
}

func toSuggestion[V media.Variant[V]](rec session.Record[V]) Suggestion {
	out := Suggestion{
		Key:     rec.Key(),
		Kind:    rec.Content.Kind(),
		Summary: rec.Content.Summary(),
		Genre:   rec.PrimaryGenre,
		Reason:  rec.Reasoning,
		Outcome: rec.UserOutcome,
		Fields:  rec.Content.Fields(),
	}
	if rec.RespondedAt > 0 {
		out.RespondedAt = time.Unix(rec.RespondedAt, 0)
	}
	return out
}

func toItem[V media.Variant[V]](item V) Item {
	return Item{
		Key:     item.Key(),
		Kind:    item.Kind(),
		Summary: item.Summary(),
		Fields:  item.Fields(),
	}
}
