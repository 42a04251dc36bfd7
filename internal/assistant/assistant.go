package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nextup/internal/config"
	"nextup/internal/feedbacklog"
	"nextup/internal/library"
	"nextup/internal/logging"
	"nextup/internal/media"
	"nextup/internal/services"
	"nextup/internal/services/llm"
	"nextup/internal/session"
	"nextup/internal/settings"
	"nextup/internal/suggest"
)

// Transport is the model endpoint used for suggestions and health checks.
// *llm.Client satisfies it.
type Transport interface {
	suggest.Transport
	HealthCheck(ctx context.Context) error
}

// TransportFactory builds the transport for one provider's settings.
type TransportFactory func(cfg config.LLM) (Transport, error)

// Option customizes an Assistant.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	factory TransportFactory
	now     func() time.Time
}

// WithLogger routes diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTransportFactory overrides how provider transports are built.
func WithTransportFactory(factory TransportFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithTransport serves every provider with t.
func WithTransport(t Transport) Option {
	return WithTransportFactory(func(config.LLM) (Transport, error) { return t, nil })
}

// WithClock overrides the time source for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Assistant wires the stores of one user together.
type Assistant struct {
	cfg    *config.Config
	user   string
	logger *slog.Logger
	now    func() time.Time

	sessions  *session.Sessions
	favorites *library.Store
	queue     *library.Store
	settings  *settings.Store
	journal   *feedbacklog.Log

	factory    TransportFactory
	transMu    sync.Mutex
	transports map[string]Transport

	kindLocks map[media.Kind]*sync.Mutex
}

// New builds the Assistant for cfg's profile. Directories are created as
// needed. A journal that cannot be opened is logged and skipped.
func New(cfg *config.Config, opts ...Option) (*Assistant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: assistant requires a config", services.ErrConfiguration)
	}
	o := options{logger: logging.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "assistant", "init", "ensure directories", err)
	}

	logger := logging.NewComponentLogger(o.logger, "assistant").With(logging.String(logging.FieldUser, cfg.Profile.User))
	if o.factory == nil {
		o.factory = clientFactory(o.logger)
	}
	userDir := cfg.UserDir()
	defaults := settings.Defaults{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		RepairModel: cfg.LLM.RepairModel,
	}
	a := &Assistant{
		cfg:        cfg,
		user:       cfg.Profile.User,
		logger:     logger,
		now:        o.now,
		sessions:   session.NewSessions(userDir, session.WithLogger(o.logger), session.WithClock(o.now)),
		favorites:  library.NewStore(userDir, library.Favorites, o.logger),
		queue:      library.NewStore(userDir, library.Queue, o.logger),
		settings:   settings.NewStore(userDir, defaults, o.logger),
		factory:    o.factory,
		transports: make(map[string]Transport),
		kindLocks:  make(map[media.Kind]*sync.Mutex, len(media.Kinds())),
	}
	for _, kind := range media.Kinds() {
		a.kindLocks[kind] = &sync.Mutex{}
	}

	if cfg.FeedbackLog.Enabled {
		journal, err := feedbacklog.Open(userDir)
		if err != nil {
			logging.WarnWithContext(logger, "feedback journal unavailable", "feedback_log_open_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on "+userDir),
				logging.String(logging.FieldImpact, "outcomes are recorded in sessions only"),
			)
		} else {
			a.journal = journal
		}
	}
	return a, nil
}

// Close releases the journal.
func (a *Assistant) Close() error {
	if a == nil || a.journal == nil {
		return nil
	}
	return a.journal.Close()
}

// User returns the profile the assistant serves.
func (a *Assistant) User() string {
	return a.user
}

// Sessions exposes the per-kind managers.
func (a *Assistant) Sessions() *session.Sessions {
	return a.sessions
}

// Settings returns the user's preferences.
func (a *Assistant) Settings() (settings.Settings, error) {
	return a.settings.Load()
}

// SetSetting updates one preference by name.
func (a *Assistant) SetSetting(field, value string) (settings.Settings, error) {
	return a.settings.Set(field, value)
}

// FeedbackEvents lists journaled outcomes for this user, newest first. kind
// may be empty to include every kind.
func (a *Assistant) FeedbackEvents(ctx context.Context, kind string, limit int) ([]feedbacklog.Event, error) {
	if a.journal == nil {
		return nil, fmt.Errorf("%w: feedback journal is disabled", services.ErrConfiguration)
	}
	return a.journal.List(ctx, feedbacklog.Filter{User: a.user, Kind: kind, Limit: limit})
}

// HealthCheck verifies the transport of the selected provider.
func (a *Assistant) HealthCheck(ctx context.Context) error {
	st, err := a.settings.Load()
	if err != nil {
		return err
	}
	t, err := a.transport(st.Provider)
	if err != nil {
		return err
	}
	return t.HealthCheck(ctx)
}

func (a *Assistant) transport(provider string) (Transport, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	a.transMu.Lock()
	defer a.transMu.Unlock()
	if t, ok := a.transports[provider]; ok {
		return t, nil
	}
	llmCfg, err := a.cfg.LLMFor(provider)
	if err != nil {
		return nil, err
	}
	t, err := a.factory(llmCfg)
	if err != nil {
		return nil, err
	}
	a.transports[provider] = t
	return t, nil
}

func (a *Assistant) list(name string) (*library.Store, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case library.Favorites:
		return a.favorites, nil
	case library.Queue:
		return a.queue, nil
	default:
		return nil, fmt.Errorf("%w: unknown list %q (use %s or %s)", services.ErrValidation, name, library.Favorites, library.Queue)
	}
}

// record journals an outcome. Failures are logged; the session document
// already holds the outcome.
func (a *Assistant) record(ctx context.Context, kind media.Kind, key, title string, outcome session.Outcome) {
	if a.journal == nil {
		return
	}
	_, err := a.journal.Append(ctx, feedbacklog.Event{
		User:    a.user,
		Kind:    string(kind),
		Key:     key,
		Title:   title,
		Outcome: string(outcome),
		At:      a.now(),
	})
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "feedback journal append failed", "feedback_log_append_failed",
			logging.String(logging.FieldSuggestionKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect "+a.journal.Path()),
			logging.String(logging.FieldImpact, "this outcome is missing from nextup log"),
		)
	}
}

func clientFactory(logger *slog.Logger) TransportFactory {
	return func(cfg config.LLM) (Transport, error) {
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("%w: no API key for provider %q", services.ErrConfiguration, cfg.Provider)
		}
		return llm.NewClient(llm.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Referer:        cfg.Referer,
			Title:          cfg.Title,
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
			llm.WithLogger(logger),
			llm.WithRetryMaxAttempts(cfg.RetryAttempts),
			llm.WithRateLimit(cfg.RequestsPerMinute),
			llm.WithCircuitBreaker(cfg.BreakerFailures, cfg.BreakerCooldown()),
		), nil
	}
}
