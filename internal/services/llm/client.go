package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"nextup/internal/logging"
	"nextup/internal/services"
)

const (
	jsonResponseType      = "json_object"
	defaultBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryAttempts  = 1
	defaultTemperature    = 0.8
)

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// DefaultHTTPTimeout returns the default timeout used for LLM requests.
func DefaultHTTPTimeout() time.Duration {
	return defaultHTTPTimeout
}

// Client wraps an OpenAI-compatible chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger routes request diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetryMaxAttempts overrides the attempt count (defaults to 1, no retries).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithRateLimit paces requests to at most perMinute per minute. Zero or
// negative disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithCircuitBreaker opens the circuit after failures consecutive failed
// calls and keeps it open for cooldown. Zero failures disables the breaker.
func WithCircuitBreaker(failures int, cooldown time.Duration) Option {
	return func(c *Client) {
		if failures <= 0 {
			c.breaker = nil
			return
		}
		threshold := uint32(failures)
		c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "llm",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// Configuration errors and cancellations do not count against the provider.
				return err == nil ||
					errors.Is(err, services.ErrConfiguration) ||
					errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				if to == gobreaker.StateOpen {
					logging.WarnWithContext(c.logger, "llm circuit opened", "llm_circuit_open",
						logging.String("from", from.String()),
						logging.String(logging.FieldErrorHint, "check provider status and credentials"),
						logging.String(logging.FieldImpact, "suggestion requests fail fast until the cooldown ends"),
					)
					return
				}
				c.logger.Info("llm circuit state changed", logging.String("from", from.String()), logging.String("to", to.String()))
			},
		})
	}
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logging.NewNop(),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "llm")
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Chat sends messages to model (the configured default when empty) and
// returns the first choice's text.
func (c *Client) Chat(ctx context.Context, messages []Message, model string) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("llm chat: %w: at least one message required", services.ErrValidation)
	}
	payload := chatCompletionRequest{
		Model:       c.resolveModel(model),
		Messages:    messages,
		Temperature: defaultTemperature,
	}
	return c.guardedCompletion(ctx, payload, "llm chat")
}

// HealthCheck issues a fast ping to verify the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			System("You must respond with JSON only."),
			User("Respond with {\"ok\":true}"),
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}
	content, err := c.guardedCompletion(ctx, payload, "llm health")
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(stripCodeFenceBlock(content)), &parsed); err != nil {
		return fmt.Errorf("llm health: %w: parse payload %s: %w", services.ErrMalformedResponse, summarizePayloadSnippet(content), err)
	}
	if !parsed.OK {
		return fmt.Errorf("llm health: %w: unexpected response", services.ErrMalformedResponse)
	}
	return nil
}

func (c *Client) resolveModel(model string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	return c.cfg.Model
}

// guardedCompletion applies the API key check, pacing and the circuit
// breaker around the retrying request.
func (c *Client) guardedCompletion(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%s: %w: api key required", op, services.ErrConfiguration)
	}
	if payload.Model == "" {
		return "", fmt.Errorf("%s: %w: model required", op, services.ErrConfiguration)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%s: %w: pacing: %w", op, services.ErrTransport, err)
		}
	}

	started := time.Now()
	var (
		content string
		err     error
	)
	if c.breaker != nil {
		content, err = c.breaker.Execute(func() (string, error) {
			return c.completionContentWithRetry(ctx, payload, op)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%s: %w: %w", op, services.ErrTransport, err)
		}
	} else {
		content, err = c.completionContentWithRetry(ctx, payload, op)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldModel, payload.Model),
		logging.Int("messages", len(payload.Messages)),
		logging.Duration("elapsed", time.Since(started)),
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldCorrelationID, rid))
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
		c.logger.Debug(op+" failed", logging.Args(attrs...)...)
		return "", err
	}
	attrs = append(attrs, logging.Int("reply_chars", len(content)))
	c.logger.Debug(op+" completed", logging.Args(attrs...)...)
	return content, nil
}

func (c *Client) completionContentWithRetry(ctx context.Context, payload chatCompletionRequest, op string) (string, error) {
	attempts := c.retryAttempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		completion, body, err := c.sendChatRequestOnce(ctx, payload)
		if err == nil {
			content, finishReason := extractCompletionPayload(completion)
			if content != "" {
				return content, nil
			}
			if len(completion.Choices) == 0 {
				err = fmt.Errorf("%s: %w: empty choices", op, services.ErrTransport)
			} else {
				err = &emptyContentError{
					Op:           op,
					FinishReason: finishReason,
					Refusal:      extractCompletionRefusal(completion),
					Snippet:      summarizePayloadSnippet(string(body)),
				}
			}
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			if attempts > 1 && attempt > 1 {
				return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
			}
			return "", err
		}
		if err := c.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%s: %w: %w", op, services.ErrTransport, err)
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: unknown retry failure", services.ErrTransport)
	}
	return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

// extractCompletionPayload returns the first choice's text.
func extractCompletionPayload(completion chatCompletionResponse) (string, string) {
	if len(completion.Choices) == 0 {
		return "", ""
	}
	choice := completion.Choices[0]
	finishReason := strings.TrimSpace(choice.FinishReason)
	if content := firstNonEmpty(
		choice.Message.Content,
		choice.Delta.Content,
		choice.Text,
	); content != "" {
		return content, finishReason
	}
	if args := firstNonEmpty(
		functionCallArguments(choice.Message.FunctionCall),
		functionCallArguments(choice.Delta.FunctionCall),
	); args != "" {
		return args, finishReason
	}
	if args := firstNonEmpty(
		toolCallArguments(choice.Message.ToolCalls),
		toolCallArguments(choice.Delta.ToolCalls),
	); args != "" {
		return args, finishReason
	}
	return "", finishReason
}

func extractCompletionRefusal(completion chatCompletionResponse) string {
	if len(completion.Choices) == 0 {
		return ""
	}
	choice := completion.Choices[0]
	return firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
}

func functionCallArguments(fc *functionCall) string {
	if fc == nil {
		return ""
	}
	return strings.TrimSpace(fc.Arguments)
}

func toolCallArguments(calls []toolCall) string {
	for _, call := range calls {
		if args := strings.TrimSpace(call.Function.Arguments); args != "" {
			return args
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (chatCompletionResponse, []byte, error) {
	var completion chatCompletionResponse
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "")
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: %w: build url: %w", services.ErrConfiguration, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: %w: encode body: %w", services.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: %w: new request: %w", services.ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: %w: http error (timeout=%s): %w", services.ErrTransport, c.timeoutDuration(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return completion, nil, fmt.Errorf("llm request: %w: read body (timeout=%s): %w", services.ErrTransport, c.timeoutDuration(), err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return completion, body, statusError(resp.StatusCode, body, retryAfter)
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return completion, body, fmt.Errorf("llm request: %w: decode response %s: %w", services.ErrTransport, summarizePayloadSnippet(string(body)), err)
	}
	if completion.Error != nil {
		if completion.Error.isRateLimit() {
			return completion, body, &RateLimitError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(completion.Error.Message)}
		}
		return completion, body, &APIError{Message: strings.TrimSpace(completion.Error.Message), Code: completion.Error.code()}
	}
	return completion, body, nil
}

func (c *Client) timeoutDuration() time.Duration {
	if c == nil || c.httpClient == nil {
		return defaultHTTPTimeout
	}
	if c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
