package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/notebox/pkg/backup"
	"github.com/aretw0/notebox/pkg/calendar"
	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/store"
)

// App wires the stores and collaborators over one storage.
type App struct {
	Storage  core.Storage
	Notes    *store.Notes
	Themes   *store.Themes
	Calendar *calendar.ICS
	// Backups is nil when the storage cannot list keys.
	Backups *backup.Manager
	Logger  *slog.Logger
}

// app, err := notebox.New("./notes", notebox.WithAutoInit(true))
// The uri argument is adapter-specific (a directory for fs, a file for sqlite).
func New(ctx context.Context, uri string, opts ...Option) (*App, error) {
	o := parseOptions(opts)

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		o.logger = logger
	}

	storage, err := initStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	cfg := store.Config{Logger: logger, Clock: o.clock()}
	if n, ok := o.config["event_buffer"].(int); ok {
		cfg.EventBuffer = n
	}
	if fn, ok := o.config["new_id"].(func() string); ok {
		cfg.NewID = fn
	}

	loc, _ := o.config["location"].(*time.Location)

	app := &App{
		Storage: storage,
		Notes:   store.NewNotes(ctx, storage, cfg),
		Themes:  store.NewThemes(ctx, storage, cfg),
		Calendar: calendar.NewICS(storage, calendar.ICSConfig{
			Location: loc,
			Logger:   logger,
			Clock:    cfg.Clock,
			NewID:    cfg.NewID,
		}),
		Logger: logger,
	}

	app.Backups, err = backup.New(storage, backup.Config{Logger: logger, Clock: cfg.Clock})
	if errors.Is(err, backup.ErrUnsupported) {
		logger.Debug("backups disabled, storage cannot list keys")
	} else if err != nil {
		return nil, err
	}

	return app, nil
}

// Reload re-reads both stores after an external change to the storage.
func (a *App) Reload(ctx context.Context) error {
	return errors.Join(a.Notes.Reload(ctx), a.Themes.Reload(ctx))
}

// Close closes the event channels and the storage when it holds resources.
func (a *App) Close() error {
	a.Notes.Close()
	a.Themes.Close()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
