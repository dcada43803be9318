package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox"
	"github.com/aretw0/notebox/internal/config"
	"github.com/aretw0/notebox/internal/platform"
)

var (
	verbose    bool
	configPath string
	storePath  string
	adapter    string
	jsonOutput bool
	message    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notebox",
	Short: "Buckets, categories and notes in a local store",
	Long: `notebox keeps a Bucket -> Category -> Note tree and the selected app theme
in a local store (plain files, optionally versioned with git, or SQLite).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: notebox.yaml in the store root)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "", "Store location (overrides the config file)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: fs, sqlite or memory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&message, "message", "m", "", "Change reason recorded in the git history")
}

// loadConfig resolves the configuration: --config, then notebox.yaml in the
// store root, then defaults. Flags always win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)

	path := configPath
	if path == "" {
		if root, ferr := platform.FindRoot("."); ferr == nil {
			candidate := filepath.Join(root, platform.ConfigFileName)
			if _, serr := os.Stat(candidate); serr == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
		// A relative store is relative to the config file.
		if !filepath.IsAbs(cfg.Store) {
			cfg.Store = filepath.Join(filepath.Dir(path), cfg.Store)
		}
		slog.Debug("config loaded", "path", path)
	} else {
		cfg = config.DefaultConfig()
	}

	if cmd.Flags().Changed("store") {
		cfg.Store = storePath
	}
	if cmd.Flags().Changed("adapter") {
		cfg.Adapter = adapter
	}
	cfg.Normalize()
	if cfg.Store != ":memory:" {
		if cfg.Store, err = filepath.Abs(cfg.Store); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func appOptions(cfg *config.Config, extra ...notebox.Option) ([]notebox.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := []notebox.Option{
		notebox.WithAdapter(cfg.Adapter),
		notebox.WithLogger(slog.Default()),
		notebox.WithLocation(loc),
	}
	if cfg.Versioning {
		opts = append(opts, notebox.WithVersioning(true))
	}
	return append(opts, extra...), nil
}

// openApp opens an existing store.
func openApp(cmd *cobra.Command) (*notebox.App, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	opts, err := appOptions(cfg, notebox.WithMustExist(cfg.Adapter == "fs"))
	if err != nil {
		return nil, nil, err
	}
	app, err := notebox.New(cmd.Context(), cfg.Store, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store %s: %w", cfg.Store, err)
	}
	return app, cfg, nil
}

// changeContext carries --message to versioned storages.
func changeContext(cmd *cobra.Command, fallback string) context.Context {
	reason := message
	if reason == "" {
		reason = notebox.FormatChangeReason(notebox.CommitTypeChore, "notes", fallback, "")
	}
	return notebox.WithChangeReason(cmd.Context(), reason)
}

// saved reports a write the stores accepted in memory but failed to persist.
func saved(app *notebox.App) error {
	if err := errors.Join(app.Notes.LastError(), app.Themes.LastError()); err != nil {
		return fmt.Errorf("change not saved: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
