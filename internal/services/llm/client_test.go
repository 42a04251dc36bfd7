package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextup/internal/services"
)

func replyWith(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": content}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(replyWith(t, `{"ok":true}`))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "```json\n{\"ok\":true}\n```"))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad key", "code": 401}})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransport)
	assert.NotErrorIs(t, err, services.ErrRateLimited)

	var coder services.StatusCoder
	require.True(t, errors.As(err, &coder))
	assert.Equal(t, http.StatusUnauthorized, coder.HTTPStatus())
	assert.Contains(t, services.UserMessage(err), "API key")
}

func TestChatSendsMessagesAndModel(t *testing.T) {
	var captured chatCompletionRequest
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		replyWith(t, "  hello  ")(w, r)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "default-model", Referer: "https://example.com", Title: "nextup"})
	ctx := services.WithRequestID(context.Background(), "rid-1")
	messages := []Message{System("sys"), User("no rap")}

	reply, err := client.Chat(ctx, messages, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, "default-model", captured.Model)
	assert.Equal(t, messages, captured.Messages)
	assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
	assert.Equal(t, "nextup", headers.Get("X-Title"))
	assert.Equal(t, "rid-1", headers.Get("X-Request-ID"))

	_, err = client.Chat(ctx, messages, "override-model")
	require.NoError(t, err)
	assert.Equal(t, "override-model", captured.Model)
}

func TestChatRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestChatUsesFirstChoiceOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"first"}},{"message":{"content":"second"}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	reply, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.NoError(t, err)
	assert.Equal(t, "first", reply)
}

func TestChatFallsBackToToolArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"","tool_calls":[{"type":"function","function":{"name":"suggest","arguments":"{\"title\":\"Dune\"}"}}]}}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	reply, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Dune"}`, reply)
}

func TestChatRateLimitStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit exceeded: free-models-per-min","code":429}}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.Error(t, err)

	var limitErr *RateLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "Rate limit exceeded: free-models-per-min", limitErr.ProviderMessage())
	assert.ErrorIs(t, err, services.ErrRateLimited)
	assert.ErrorIs(t, err, services.ErrTransport)
	assert.Equal(t, int32(1), calls.Load(), "no retries by default")
	assert.Contains(t, services.UserMessage(err), "free-models-per-min")
}

func TestChatRateLimitInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit_error","code":"rate_limit_exceeded"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	assert.ErrorIs(t, err, services.ErrRateLimited)
}

func TestChatAPIErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"message":"model not found","code":"404"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransport)
	assert.NotErrorIs(t, err, services.ErrRateLimited)
	assert.Contains(t, err.Error(), "model not found")
}

func TestChatRetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		replyWith(t, "ok")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "k", BaseURL: server.URL, Model: "m"},
		WithRetryMaxAttempts(3),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	reply, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, slept)
}

func TestChatDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithRetryMaxAttempts(4), WithSleeper(func(time.Duration) {}))
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithCircuitBreaker(2, time.Hour))
	for i := 0; i < 2; i++ {
		_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
		require.Error(t, err)
	}
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransport)
	assert.True(t, strings.Contains(err.Error(), "circuit breaker is open"), err.Error())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimiterHonoursContext(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "ok"))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "m"}, WithRateLimit(1))
	_, err := client.Chat(context.Background(), []Message{User("hi")}, "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Chat(ctx, []Message{User("hi")}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrTransport)
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("3")
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
	_, ok = parseRetryAfter("soon")
	assert.False(t, ok)
}
