// Package feedbacklog journals recorded suggestion outcomes in a small
// SQLite database so they can be reviewed across sessions and kinds.
//
// The session documents stay authoritative; the journal is append-only and
// read by `nextup log`.
package feedbacklog
