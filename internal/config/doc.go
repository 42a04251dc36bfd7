// Package config loads, normalizes, and validates nextup configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file beside the config,
// and honours API key fallbacks such as NEXTUP_API_KEY and OPENROUTER_API_KEY.
// Provider names resolve to their chat-completion endpoints and default models
// here so the transport only ever sees concrete URLs.
package config
