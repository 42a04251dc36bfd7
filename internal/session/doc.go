// Package session stores suggestion history per user and content kind.
//
// A Manager owns every Document of one kind: it caches documents in memory
// behind a read/write lock, loads them lazily from one JSON file each, and
// writes the whole document back atomically on every mutation. Mutations that
// fail to persist are rolled back so memory never disagrees with disk.
//
// Sessions constructs the five managers and For selects one by variant type.
package session
