package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/typed"
)

// Themes owns the single current AppTheme and its persistence.
type Themes struct {
	mu      sync.RWMutex
	current core.AppTheme

	value  *typed.Value[core.AppTheme]
	broker *core.Broker
	logger *slog.Logger
	clock  func() time.Time

	lastErr error
}

// NewThemes creates a Theme Store. The persisted theme is loaded; when it is
// absent or undecodable core.DefaultTheme is used.
func NewThemes(ctx context.Context, storage core.Storage, cfg Config) *Themes {
	cfg = cfg.withDefaults()
	s := &Themes{
		current: core.DefaultTheme,
		value:   typed.NewValue[core.AppTheme](storage, core.KeyTheme),
		broker:  core.NewBroker(cfg.EventBuffer, cfg.Logger),
		logger:  cfg.Logger,
		clock:   cfg.Clock,
	}

	theme, err := s.value.Load(ctx)
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.logger.Debug("no persisted theme, using default")
	case err != nil:
		s.logger.Warn("failed to load theme, using default", "error", err)
	default:
		s.current = theme
		s.logger.Debug("theme loaded", "theme", theme.Name)
	}
	return s
}

// Current returns the applied theme.
func (s *Themes) Current() core.AppTheme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ApplyTheme replaces the current theme and persists it immediately.
// A write failure is logged and the in-memory selection still changes.
func (s *Themes) ApplyTheme(ctx context.Context, theme core.AppTheme) {
	s.mu.Lock()
	s.current = theme
	s.lastErr = s.value.Save(ctx, theme)
	if err := s.lastErr; err != nil {
		s.logger.Error("failed to persist theme", "theme", theme.Name, "error", err)
	} else {
		s.logger.Debug("theme persisted", "theme", theme.Name)
	}
	s.broker.Publish(core.Event{Type: core.EventThemeApplied, ThemeID: theme.ID, Timestamp: s.clock().Unix()})
	s.mu.Unlock()
}

// LastError returns the error of the most recent persist, nil once a later
// persist succeeds.
func (s *Themes) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// BuiltinThemes lists the themes a picker can offer.
func (s *Themes) BuiltinThemes() []core.AppTheme {
	return core.BuiltinThemes()
}

// ThemeByID resolves a built-in theme by id or name.
func (s *Themes) ThemeByID(id string) (core.AppTheme, bool) {
	return core.BuiltinTheme(id)
}

// ApplyBuiltin applies a built-in theme selected by id or name.
func (s *Themes) ApplyBuiltin(ctx context.Context, idOrName string) (core.AppTheme, bool) {
	theme, ok := core.BuiltinTheme(idOrName)
	if !ok {
		return core.AppTheme{}, false
	}
	s.ApplyTheme(ctx, theme)
	return theme, true
}

// Reload re-reads the persisted theme. A missing value restores the default.
func (s *Themes) Reload(ctx context.Context) error {
	s.mu.Lock()
	theme, err := s.value.Load(ctx)
	if errors.Is(err, core.ErrNotFound) {
		theme, err = core.DefaultTheme, nil
	}
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("reload theme: %w", err)
	}
	s.current = theme
	s.broker.Publish(core.Event{Type: core.EventReloaded, ThemeID: theme.ID, Timestamp: s.clock().Unix()})
	s.mu.Unlock()
	return nil
}

// Subscribe returns a stream of theme events, closed when ctx is done.
func (s *Themes) Subscribe(ctx context.Context) <-chan core.Event {
	return s.broker.Subscribe(ctx)
}

// Close releases every subscriber.
func (s *Themes) Close() {
	s.broker.Close()
}
