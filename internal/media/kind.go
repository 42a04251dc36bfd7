package media

import (
	"fmt"
	"strings"

	"nextup/internal/services"
)

// Kind names one content kind.
type Kind string

const (
	KindSong  Kind = "song"
	KindMovie Kind = "movie"
	KindBook  Kind = "book"
	KindShow  Kind = "show"
	KindGame  Kind = "game"
)

// Kinds returns every supported kind in display order.
func Kinds() []Kind {
	return []Kind{KindSong, KindMovie, KindBook, KindShow, KindGame}
}

// ParseKind accepts singular or plural kind names in any case.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.TrimSuffix(normalized, "s")
	for _, kind := range Kinds() {
		if string(kind) == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: unknown content kind %q", services.ErrValidation, value)
}

func (k Kind) String() string {
	return string(k)
}

// Plural returns the collection name used in favorites and queue documents.
func (k Kind) Plural() string {
	return string(k) + "s"
}
