package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notebox",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notebox version %s\n", notebox.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
