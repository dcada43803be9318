package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/notebox"
	nblifecycle "github.com/aretw0/notebox/pkg/adapters/lifecycle"
	"github.com/aretw0/notebox/pkg/api"
	"github.com/aretw0/notebox/pkg/backup"
	"github.com/aretw0/notebox/pkg/core"
)

var listenAddr string

// watchPattern limits reloads to the keys the stores own.
const watchPattern = "{" + core.KeyBuckets + "," + core.KeyTheme + "}"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API, run scheduled backups and follow external edits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cfg, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("listen") {
			cfg.Listen = listenAddr
		}
		loc, _ := cfg.Location()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		g, ctx := errgroup.WithContext(ctx)

		srv := &http.Server{
			Addr: cfg.Listen,
			Handler: api.New(api.Config{
				Notes:    app.Notes,
				Themes:   app.Themes,
				Calendar: app.Calendar,
				Backups:  app.Backups,
				Location: loc,
				Logger:   app.Logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("listening", "addr", cfg.Listen, "store", cfg.Store, "adapter", cfg.Adapter)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if cfg.Backup.Enabled && app.Backups != nil {
			sched, err := backup.NewScheduler(app.Backups, cfg.Backup.Cron, cfg.Backup.Keep, app.Logger)
			if err != nil {
				return err
			}
			g.Go(func() error { return sched.Run(ctx) })
		}

		if err := followChanges(ctx, g, app); err != nil {
			return err
		}
		logStoreEvents(ctx, g, app)

		return g.Wait()
	},
}

// followChanges reloads the stores when the storage reports a change made
// outside this process (another CLI call, a git checkout, a sync tool).
func followChanges(ctx context.Context, g *errgroup.Group, app *notebox.App) error {
	w, ok := app.Storage.(core.Watchable)
	if !ok {
		slog.Debug("storage cannot be watched, external edits need a restart")
		return nil
	}
	events, err := w.Watch(ctx, watchPattern)
	if err != nil {
		return err
	}

	src := nblifecycle.NewStorageSource(events)
	if err := src.Start(ctx); err != nil {
		return err
	}
	g.Go(func() error {
		for e := range src.Events() {
			slog.Debug("storage changed", "event", e.String())
			if err := app.Reload(ctx); err != nil {
				slog.Warn("reload failed", "error", err)
			}
		}
		return nil
	})
	return nil
}

func logStoreEvents(ctx context.Context, g *errgroup.Group, app *notebox.App) {
	src := nblifecycle.NewSource(app.Notes.Subscribe(ctx))
	if err := src.Start(ctx); err != nil {
		return
	}
	g.Go(func() error {
		for e := range src.Events() {
			slog.Debug("store event", "event", e.String())
		}
		return nil
	})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides the config file)")
}
