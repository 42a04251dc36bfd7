// Package services defines shared utilities consumed by the session stores,
// the LLM round-trip, and the caller-facing assistant.
//
// Key responsibilities:
//   - Context helpers that stamp content kinds, the local profile, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (duplicate, not found, transport, rate limit,
//     malformed response, persistence).
//   - UserMessage, which turns those markers into the short text shown at the
//     UI boundary.
package services
