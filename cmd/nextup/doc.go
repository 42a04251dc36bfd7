// Command nextup asks a language model for the next song, movie, book, show
// or game to try, remembers every suggestion and the user's reaction, and
// keeps favorites and a queue per content kind.
package main
