// Package logs reads nextup's own log file for `nextup logs`.
//
// Tail returns the last lines of the file with bounded memory and the offset
// to continue from; Follow polls from that offset until the context ends.
// Filter narrows JSON records by component, kind or minimum level.
package logs
