package session

import (
	"fmt"
	"strings"

	"nextup/internal/media"
	"nextup/internal/services"
)

// Outcome is the user's reaction to a suggestion.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeLiked    Outcome = "liked"
	OutcomeDisliked Outcome = "disliked"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeAdded    Outcome = "added"
)

// Outcomes lists every outcome value.
func Outcomes() []Outcome {
	return []Outcome{OutcomePending, OutcomeLiked, OutcomeDisliked, OutcomeSkipped, OutcomeAdded}
}

// ParseOutcome validates a user-supplied outcome name.
func ParseOutcome(value string) (Outcome, error) {
	candidate := Outcome(strings.ToLower(strings.TrimSpace(value)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("%w: unknown outcome %q", services.ErrValidation, value)
}

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	for _, known := range Outcomes() {
		if o == known {
			return true
		}
	}
	return false
}

// Record is one suggestion and the user's reaction to it.
type Record[V media.Variant[V]] struct {
	PrimaryGenre string  `json:"primary_genre"`
	Reasoning    string  `json:"reasoning"`
	UserOutcome  Outcome `json:"user_outcome"`
	// RespondedAt is unix seconds; zero until the first outcome is recorded.
	RespondedAt int64 `json:"responded_at"`
	Content     V     `json:"content"`
}

// NewRecord wraps content as a pending record.
func NewRecord[V media.Variant[V]](content V, genre, reasoning string) Record[V] {
	return Record[V]{
		PrimaryGenre: strings.TrimSpace(genre),
		Reasoning:    strings.TrimSpace(reasoning),
		UserOutcome:  OutcomePending,
		Content:      content,
	}
}

// Key returns the record's dedup key.
func (r Record[V]) Key() string {
	return r.Content.Key()
}

// Comparator reports whether candidate duplicates existing.
type Comparator[V media.Variant[V]] func(existing, candidate Record[V]) bool

// Keyer derives the map key a record is stored under.
type Keyer[V media.Variant[V]] func(Record[V]) string

// DefaultComparator matches records whose content is Equal.
func DefaultComparator[V media.Variant[V]](existing, candidate Record[V]) bool {
	return existing.Content.Equal(candidate.Content)
}

// KeyComparator matches records whose content shares a dedup key.
func KeyComparator[V media.Variant[V]](existing, candidate Record[V]) bool {
	return existing.Content.Key() == candidate.Content.Key()
}

// DefaultKeyer stores records under their content key.
func DefaultKeyer[V media.Variant[V]](r Record[V]) string {
	return r.Content.Key()
}
