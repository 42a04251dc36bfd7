package media

import "nextup/internal/textutil"

// Song is a single track.
type Song struct {
	Title       string `json:"title" validate:"required"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ArtworkPath string `json:"artwork_path,omitempty"`
}

func (Song) Kind() Kind { return KindSong }

func (s Song) Key() string { return textutil.NormalizeKey(s.Title, s.Artist, s.Album) }

func (s Song) Equal(other Song) bool {
	return same(s.Title, other.Title) && same(s.Artist, other.Artist) && same(s.Album, other.Album)
}

func (s Song) Fields() Fields {
	return Fields{"title": s.Title, "artist": s.Artist, "album": s.Album, "artwork_path": s.ArtworkPath}
}

func (s Song) Summary() string {
	return joinSummary(quote(s.Title), prefixed(" by ", s.Artist), wrapped(" (", s.Album, ")"))
}

func songFromFields(f Fields) Song {
	return Song{
		Title:       resolve(f, KindSong, "title"),
		Artist:      resolve(f, KindSong, "artist"),
		Album:       resolve(f, KindSong, "album"),
		ArtworkPath: resolve(f, KindSong, "artwork_path"),
	}
}

// Movie is a feature film.
type Movie struct {
	Title      string `json:"title" validate:"required"`
	Director   string `json:"director"`
	Year       string `json:"year"`
	PosterPath string `json:"poster_path,omitempty"`
}

func (Movie) Kind() Kind { return KindMovie }

func (m Movie) Key() string { return textutil.NormalizeKey(m.Title, m.Director, m.Year) }

func (m Movie) Equal(other Movie) bool {
	return same(m.Title, other.Title) && same(m.Director, other.Director) && same(m.Year, other.Year)
}

func (m Movie) Fields() Fields {
	return Fields{"title": m.Title, "director": m.Director, "year": m.Year, "poster_path": m.PosterPath}
}

func (m Movie) Summary() string {
	return joinSummary(quote(m.Title), wrapped(" (", m.Year, ")"), prefixed(", directed by ", m.Director))
}

func movieFromFields(f Fields) Movie {
	return Movie{
		Title:      resolve(f, KindMovie, "title"),
		Director:   resolve(f, KindMovie, "director"),
		Year:       resolve(f, KindMovie, "year"),
		PosterPath: resolve(f, KindMovie, "poster_path"),
	}
}

// Book is a written work.
type Book struct {
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author"`
	CoverPath string `json:"cover_path,omitempty"`
}

func (Book) Kind() Kind { return KindBook }

func (b Book) Key() string { return textutil.NormalizeKey(b.Title, b.Author) }

func (b Book) Equal(other Book) bool {
	return same(b.Title, other.Title) && same(b.Author, other.Author)
}

func (b Book) Fields() Fields {
	return Fields{"title": b.Title, "author": b.Author, "cover_path": b.CoverPath}
}

func (b Book) Summary() string {
	return joinSummary(quote(b.Title), prefixed(" by ", b.Author))
}

func bookFromFields(f Fields) Book {
	return Book{
		Title:     resolve(f, KindBook, "title"),
		Author:    resolve(f, KindBook, "author"),
		CoverPath: resolve(f, KindBook, "cover_path"),
	}
}

// Show is a television series.
type Show struct {
	Title      string `json:"title" validate:"required"`
	Creator    string `json:"creator"`
	PosterPath string `json:"poster_path,omitempty"`
}

func (Show) Kind() Kind { return KindShow }

func (s Show) Key() string { return textutil.NormalizeKey(s.Title, s.Creator) }

func (s Show) Equal(other Show) bool {
	return same(s.Title, other.Title) && same(s.Creator, other.Creator)
}

func (s Show) Fields() Fields {
	return Fields{"title": s.Title, "creator": s.Creator, "poster_path": s.PosterPath}
}

func (s Show) Summary() string {
	return joinSummary(quote(s.Title), prefixed(", created by ", s.Creator))
}

func showFromFields(f Fields) Show {
	return Show{
		Title:      resolve(f, KindShow, "title"),
		Creator:    resolve(f, KindShow, "creator"),
		PosterPath: resolve(f, KindShow, "poster_path"),
	}
}

// Game is a video game. Platform is descriptive only.
type Game struct {
	Title     string `json:"title" validate:"required"`
	Developer string `json:"developer"`
	Platform  string `json:"platform,omitempty"`
	CoverPath string `json:"cover_path,omitempty"`
}

func (Game) Kind() Kind { return KindGame }

func (g Game) Key() string { return textutil.NormalizeKey(g.Title, g.Developer) }

func (g Game) Equal(other Game) bool {
	return same(g.Title, other.Title) && same(g.Developer, other.Developer)
}

func (g Game) Fields() Fields {
	return Fields{"title": g.Title, "developer": g.Developer, "platform": g.Platform, "cover_path": g.CoverPath}
}

func (g Game) Summary() string {
	return joinSummary(quote(g.Title), prefixed(" by ", g.Developer), wrapped(" [", g.Platform, "]"))
}

func gameFromFields(f Fields) Game {
	return Game{
		Title:     resolve(f, KindGame, "title"),
		Developer: resolve(f, KindGame, "developer"),
		Platform:  resolve(f, KindGame, "platform"),
		CoverPath: resolve(f, KindGame, "cover_path"),
	}
}

// same compares identifying field values after key normalization.
func same(a, b string) bool {
	return textutil.NormalizeKey(a) == textutil.NormalizeKey(b)
}

func quote(value string) string {
	if value == "" {
		return ""
	}
	return "\"" + value + "\""
}

func prefixed(prefix, value string) string {
	if value == "" {
		return ""
	}
	return prefix + value
}

func wrapped(open, value, closing string) string {
	if value == "" {
		return ""
	}
	return open + value + closing
}
