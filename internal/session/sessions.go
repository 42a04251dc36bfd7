package session

import (
	"path/filepath"

	"nextup/internal/media"
)

// Sessions holds one manager per content kind.
type Sessions struct {
	Songs  *Manager[media.Song]
	Movies *Manager[media.Movie]
	Books  *Manager[media.Book]
	Shows  *Manager[media.Show]
	Games  *Manager[media.Game]
}

// NewSessions builds the five managers, all persisting under
// <userDir>/sessions.
func NewSessions(userDir string, opts ...Option) *Sessions {
	dir := filepath.Join(userDir, "sessions")
	return &Sessions{
		Songs:  NewManager[media.Song](dir, opts...),
		Movies: NewManager[media.Movie](dir, opts...),
		Books:  NewManager[media.Book](dir, opts...),
		Shows:  NewManager[media.Show](dir, opts...),
		Games:  NewManager[media.Game](dir, opts...),
	}
}

// For returns the manager serving variant type V.
func For[V media.Variant[V]](s *Sessions) *Manager[V] {
	var zero V
	var m any
	switch any(zero).(type) {
	case media.Song:
		m = s.Songs
	case media.Movie:
		m = s.Movies
	case media.Book:
		m = s.Books
	case media.Show:
		m = s.Shows
	case media.Game:
		m = s.Games
	}
	out, _ := m.(*Manager[V])
	return out
}
