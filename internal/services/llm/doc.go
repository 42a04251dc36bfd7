// Package llm provides the chat-completion client nextup uses to ask a model
// for suggestions.
//
// The client speaks the OpenAI-compatible chat envelope shared by OpenRouter,
// OpenAI and DeepSeek. Only the first choice's text is consumed (message
// content, then streaming delta, then legacy text, then function or tool call
// arguments).
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Chat: send an ordered message list, receive the raw reply text.
// Client.HealthCheck: verify API key and model availability.
//
// # Errors
//
// Every failure matches services.ErrTransport. Rate-limit replies (HTTP 429
// or an error code/type naming a rate limit) are returned as *RateLimitError,
// which also matches services.ErrRateLimited and carries the provider's
// message. A missing API key matches services.ErrConfiguration.
//
// # Retry Behaviour
//
// One attempt by default; retries are caller-driven. WithRetryMaxAttempts
// enables retries on HTTP 408/429/5xx, empty replies and network timeouts
// with exponential backoff (base 1s, max 10s). Context cancellation aborts
// retries immediately.
//
// # Guards
//
// WithRateLimit paces requests client-side (golang.org/x/time/rate) and
// WithCircuitBreaker stops calling a failing provider for a cooldown period
// (sony/gobreaker).
package llm
