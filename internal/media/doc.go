// Package media defines the closed set of content kinds nextup suggests
// (song, movie, book, show, game) and the identity rules shared by all of
// them: structural equality over identifying fields and a normalized dedup
// key. Generic code elsewhere is constrained by Variant so the same session,
// prompt and repair logic serves every kind.
package media
