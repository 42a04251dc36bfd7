package session

import (
	"maps"
	"slices"
	"strings"

	"nextup/internal/media"
)

// PrimeDirective is the fixed prompt text a session was created with.
type PrimeDirective struct {
	Task     string `json:"task"`
	Baseline string `json:"baseline"`
}

// Document is the persisted suggestion history of one user and kind.
type Document[V media.Variant[V]] struct {
	Key             string               `json:"key"`
	PrimeDirective  PrimeDirective       `json:"prime_directive"`
	Suggestions     map[string]Record[V] `json:"suggestions"`
	UserConstraints []string             `json:"user_constraints"`
}

// SessionKey builds the document key for user and kind.
func SessionKey(user string, kind media.Kind) string {
	return strings.TrimSpace(user) + "_" + string(kind)
}

func newDocument[V media.Variant[V]](key, task, baseline string) *Document[V] {
	return &Document[V]{
		Key:             key,
		PrimeDirective:  PrimeDirective{Task: task, Baseline: baseline},
		Suggestions:     make(map[string]Record[V]),
		UserConstraints: []string{},
	}
}

// SortedKeys returns the suggestion keys in lexical order.
func (d *Document[V]) SortedKeys() []string {
	return slices.Sorted(maps.Keys(d.Suggestions))
}

// Len reports how many suggestions the document holds.
func (d *Document[V]) Len() int {
	return len(d.Suggestions)
}

// clone returns a copy that shares no mutable state with d. Variants are
// value types made of strings, so copying the map is a deep copy.
func (d *Document[V]) clone() *Document[V] {
	if d == nil {
		return nil
	}
	out := &Document[V]{
		Key:             d.Key,
		PrimeDirective:  d.PrimeDirective,
		Suggestions:     make(map[string]Record[V], len(d.Suggestions)),
		UserConstraints: make([]string, len(d.UserConstraints)),
	}
	maps.Copy(out.Suggestions, d.Suggestions)
	copy(out.UserConstraints, d.UserConstraints)
	return out
}

// repair fills nil collections left by hand-edited or older files.
func (d *Document[V]) repair(key string) {
	if d.Key == "" {
		d.Key = key
	}
	if d.Suggestions == nil {
		d.Suggestions = make(map[string]Record[V])
	}
	if d.UserConstraints == nil {
		d.UserConstraints = []string{}
	}
}
