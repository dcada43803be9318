package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox"
)

var pruneKeep int

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot and restore the store",
}

// openBackups opens the store and fails when the storage cannot list keys.
func openBackups(cmd *cobra.Command) (*notebox.App, error) {
	app, _, err := openApp(cmd)
	if err != nil {
		return nil, err
	}
	if app.Backups == nil {
		app.Close()
		return nil, errors.New("this storage does not support backups")
	}
	return app, nil
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a snapshot now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openBackups(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := app.Backups.Snapshot(changeContext(cmd, "snapshot"))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, snap)
		}
		fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openBackups(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		snaps, err := app.Backups.List(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, snaps)
		}
		for _, s := range snaps {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %v\n", s.ID, s.Keys)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <snapshot-id>",
	Short: "Restore a snapshot over the live data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openBackups(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		snap, err := app.Backups.Restore(changeContext(cmd, "restore snapshot "+args[0]), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %s (%d keys)\n", snap.ID, len(snap.Keys))
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest --keep snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openBackups(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		removed, err := app.Backups.Prune(changeContext(cmd, "prune snapshots"), pruneKeep)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, removed)
		}
		for _, id := range removed {
			fmt.Fprintln(cmd.OutOrStdout(), "removed", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupPruneCmd)
	backupPruneCmd.Flags().IntVar(&pruneKeep, "keep", 7, "Number of snapshots to keep")
}
