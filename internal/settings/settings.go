// Package settings persists the user's scalar preferences. Absent or empty
// fields are replaced by compiled-in defaults and written back on load.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"nextup/internal/fileutil"
	"nextup/internal/logging"
	"nextup/internal/media"
	"nextup/internal/services"
	"nextup/internal/validation"
)

// Settings is the flat preference document.
type Settings struct {
	ContinuousPlayback *bool             `json:"continuous_playback" validate:"required"`
	Provider           string            `json:"provider" validate:"required"`
	Models             map[string]string `json:"models" validate:"required,dive,keys,oneof=song movie book show game,endkeys,required"`
	RepairModel        string            `json:"repair_model,omitempty"`
}

// Defaults supplies the values used for absent fields.
type Defaults struct {
	Provider    string
	Model       string
	RepairModel string
}

// Playback reports the continuous playback flag.
func (s Settings) Playback() bool {
	return s.ContinuousPlayback == nil || *s.ContinuousPlayback
}

// ModelFor returns the model configured for kind.
func (s Settings) ModelFor(kind media.Kind) string {
	return s.Models[string(kind)]
}

// RepairModelFor returns the model used for JSON repair follow-ups of kind.
func (s Settings) RepairModelFor(kind media.Kind) string {
	if s.RepairModel != "" {
		return s.RepairModel
	}
	return s.ModelFor(kind)
}

// applyDefaults fills absent fields and reports whether anything changed.
func (s *Settings) applyDefaults(d Defaults) bool {
	changed := false
	if s.ContinuousPlayback == nil {
		on := true
		s.ContinuousPlayback = &on
		changed = true
	}
	if strings.TrimSpace(s.Provider) == "" {
		s.Provider = d.Provider
		changed = true
	}
	if s.Models == nil {
		s.Models = make(map[string]string)
	}
	for _, kind := range media.Kinds() {
		if strings.TrimSpace(s.Models[string(kind)]) == "" {
			s.Models[string(kind)] = d.Model
			changed = true
		}
	}
	if s.RepairModel == "" && d.RepairModel != "" {
		s.RepairModel = d.RepairModel
		changed = true
	}
	return changed
}

func (s Settings) clone() Settings {
	out := s
	if s.ContinuousPlayback != nil {
		v := *s.ContinuousPlayback
		out.ContinuousPlayback = &v
	}
	out.Models = maps.Clone(s.Models)
	return out
}

// Store guards the settings document of one user.
type Store struct {
	path     string
	defaults Defaults
	logger   *slog.Logger

	mu     sync.Mutex
	doc    Settings
	loaded bool
}

// NewStore returns the settings store under userDir.
func NewStore(userDir string, defaults Defaults, logger *slog.Logger) *Store {
	return &Store{
		path:     filepath.Join(userDir, "settings.json"),
		defaults: defaults,
		logger:   logging.NewComponentLogger(logger, "settings"),
	}
}

// Load returns the current settings, filling and persisting defaults on
// first access.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Settings{}, err
	}
	return s.doc.clone(), nil
}

// Set updates one field by its JSON name. Model fields use "models.<kind>".
func (s *Store) Set(field, value string) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Settings{}, err
	}

	next := s.doc.clone()
	value = strings.TrimSpace(value)
	switch field = strings.ToLower(strings.TrimSpace(field)); {
	case field == "continuous_playback":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: continuous_playback expects true or false", services.ErrValidation)
		}
		next.ContinuousPlayback = &on
	case field == "provider":
		next.Provider = strings.ToLower(value)
	case field == "repair_model":
		next.RepairModel = value
	case strings.HasPrefix(field, "models."):
		kind, err := media.ParseKind(strings.TrimPrefix(field, "models."))
		if err != nil {
			return Settings{}, err
		}
		next.Models[string(kind)] = value
	default:
		return Settings{}, fmt.Errorf("%w: unknown setting %q", services.ErrValidation, field)
	}

	if err := validation.Struct(next); err != nil {
		return Settings{}, err
	}
	if err := fileutil.WriteJSONAtomic(s.path, next); err != nil {
		return Settings{}, services.Wrap(services.ErrPersistence, "settings", "save", s.path, err)
	}
	s.doc = next
	s.logger.Info("setting updated", logging.String("field", field))
	return next.clone(), nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	var doc Settings
	if err := fileutil.ReadJSON(s.path, &doc); err != nil && !errors.Is(err, fileutil.ErrNotExist) {
		logging.WarnWithContext(s.logger, "settings load failed", "settings_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or delete "+s.path),
			logging.String(logging.FieldImpact, "defaults are used and written back"),
		)
		doc = Settings{}
	}
	changed := doc.applyDefaults(s.defaults)
	if err := validation.Struct(doc); err != nil {
		logging.WarnWithContext(s.logger, "settings invalid", "settings_invalid",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix or delete "+s.path),
			logging.String(logging.FieldImpact, "stored settings are replaced by defaults"),
		)
		doc = Settings{}
		doc.applyDefaults(s.defaults)
		if err := validation.Struct(doc); err != nil {
			return services.Wrap(services.ErrConfiguration, "settings", "defaults", "", err)
		}
		changed = true
	}
	if changed {
		if err := fileutil.WriteJSONAtomic(s.path, doc); err != nil {
			return services.Wrap(services.ErrPersistence, "settings", "save defaults", s.path, err)
		}
	}
	s.doc = doc
	s.loaded = true
	return nil
}
