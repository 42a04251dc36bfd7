// Package assistant is the caller-facing surface of nextup. It owns the
// per-kind session managers, the favorites and queue lists, the settings
// store, the feedback journal and the model transports, and exposes each
// operation as a synchronous call.
//
// Service[V] is the typed API for one content kind. KindService erases the
// type parameter for callers that pick the kind at runtime, such as the CLI.
package assistant
