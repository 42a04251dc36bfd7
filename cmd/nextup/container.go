package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/samber/do/v2"

	"nextup/internal/assistant"
	"nextup/internal/config"
	"nextup/internal/logging"
)

const lockFileName = "nextup.lock"

// lockHandle holds the per-user data directory lock.
type lockHandle struct {
	*flock.Flock
}

// Shutdown implements do.Shutdownable.
func (h *lockHandle) Shutdown() error {
	return h.Unlock()
}

// assistantHandle wraps the assistant with shutdown capability.
type assistantHandle struct {
	*assistant.Assistant
}

// Shutdown implements do.Shutdownable.
func (h *assistantHandle) Shutdown() error {
	return h.Close()
}

func newContainer(cfg *config.Config, opts ...assistant.Option) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.Provide(injector, provideLogger)
	do.Provide(injector, provideLock)
	do.Provide(injector, func(i do.Injector) (*assistantHandle, error) {
		return provideAssistant(i, opts...)
	})
	return injector
}

func provideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logging.NewFromConfig(cfg)
}

func provideLock(i do.Injector) (*lockHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	path := filepath.Join(cfg.UserDir(), lockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another nextup process is using %s (lock %s)", cfg.UserDir(), path)
	}
	return &lockHandle{Flock: lock}, nil
}

func provideAssistant(i do.Injector, opts ...assistant.Option) (*assistantHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger, err := do.Invoke[*slog.Logger](i)
	if err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*lockHandle](i); err != nil {
		return nil, err
	}
	a, err := assistant.New(cfg, append([]assistant.Option{assistant.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &assistantHandle{Assistant: a}, nil
}

func invokeAssistant(injector *do.RootScope) (*assistant.Assistant, error) {
	handle, err := do.Invoke[*assistantHandle](injector)
	if err != nil {
		return nil, err
	}
	return handle.Assistant, nil
}

func shutdownContainer(injector *do.RootScope) {
	_ = injector.Shutdown()
}
