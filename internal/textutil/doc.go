// Package textutil provides text normalization helpers shared by the media
// variants, the session stores, and the CLI.
//
// The primary use cases are:
//   - Deriving dedup keys: NormalizeKey lowercases free text and strips
//     everything but letters, digits, and underscores
//   - Sanitizing filenames and path segments for safe filesystem use
//   - Title-casing kind names for display
package textutil
