// Package library keeps the user's favorites and queue: one JSON document per
// list holding movies, books, shows and games. Songs are favorited by the
// playback service and are not stored here. Membership uses media Equal.
package library
