package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nextup/internal/assistant"
	"nextup/internal/config"
	"nextup/internal/media"
	"nextup/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	// assistantOptions is appended to every Assistant built by withAssistant.
	assistantOptions []assistant.Option
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// withAssistant builds the container, holds the data directory lock while fn
// runs, and shuts everything down afterwards.
func (c *commandContext) withAssistant(fn func(*assistant.Assistant) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	injector := newContainer(cfg, c.assistantOptions...)
	defer shutdownContainer(injector)

	a, err := invokeAssistant(injector)
	if err != nil {
		return err
	}
	return presentError(fn(a))
}

// withKind is withAssistant for commands taking a content kind argument.
func (c *commandContext) withKind(kindArg string, fn func(*assistant.Assistant, assistant.KindService) error) error {
	kind, err := media.ParseKind(kindArg)
	if err != nil {
		return err
	}
	return c.withAssistant(func(a *assistant.Assistant) error {
		svc, err := a.For(kind)
		if err != nil {
			return err
		}
		return fn(a, svc)
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// cliError shows a short message while keeping the cause for errors.Is.
type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }

func (e *cliError) Unwrap() error { return e.err }

func presentError(err error) error {
	if err == nil {
		return nil
	}
	var existing *cliError
	if errors.As(err, &existing) {
		return err
	}
	return &cliError{msg: services.UserMessage(err), err: err}
}

func kindArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("a content kind is required (%s)", kindList())
	}
	return nil
}

func kindList() string {
	names := make([]string, 0, len(media.Kinds()))
	for _, kind := range media.Kinds() {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
