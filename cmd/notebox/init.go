package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox"
	"github.com/aretw0/notebox/internal/config"
	"github.com/aretw0/notebox/internal/platform"
)

var initVersioning bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Initialize a notebox store",
	Long: `Initialize a new store in dir (default: current directory) and write a
notebox.yaml next to it. With --versioning every change becomes a git commit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if storePath != "" {
			dir = storePath
		}
		if len(args) == 1 {
			dir = args[0]
		}
		// Store and notebox.yaml must agree on the path, sandbox included.
		dir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		cfg := config.DefaultConfig()
		if cmd.Flags().Changed("adapter") {
			cfg.Adapter = adapter
		}
		cfg.Versioning = initVersioning
		cfg.Normalize()

		opts, err := appOptions(cfg, notebox.WithAutoInit(true), notebox.WithVersioning(initVersioning))
		if err != nil {
			return err
		}
		app, err := notebox.New(cmd.Context(), dir, opts...)
		if err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		defer app.Close()

		cfgFile := filepath.Join(dir, platform.ConfigFileName)
		if !fileExists(cfgFile) {
			if err := cfg.Save(cfgFile); err != nil {
				return fmt.Errorf("failed to write %s: %w", cfgFile, err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty notebox store in", dir)
		if resolved := notebox.ResolveStorePath(dir, notebox.IsDevRun()); resolved != dir {
			fmt.Fprintln(cmd.OutOrStdout(), "Development run, data lives in", resolved)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initVersioning, "versioning", false, "Version the store with git")
}
