package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var bucketCmd = &cobra.Command{
	Use:   "bucket",
	Short: "Manage buckets",
}

var bucketAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a bucket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		b := app.Notes.AddBucket(changeContext(cmd, "add bucket "+args[0]), args[0])
		if err := saved(app); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, b)
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.ID)
		return nil
	},
}

var bucketListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the bucket tree",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		buckets := app.Notes.Buckets()
		if jsonOutput {
			return printJSON(cmd, buckets)
		}

		out := cmd.OutOrStdout()
		for _, b := range buckets {
			fmt.Fprintf(out, "%s  %s\n", b.ID, b.Name)
			for _, c := range b.Categories {
				fmt.Fprintf(out, "  %s  %s [%s]\n", c.ID, c.Name, c.ColorTag)
				for _, n := range c.Notes {
					fmt.Fprintf(out, "    %s  %s\n", n.ID, n.Name)
				}
			}
		}
		return nil
	},
}

var bucketDeleteCmd = &cobra.Command{
	Use:   "delete <bucket-id>",
	Short: "Delete a bucket with its categories and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		app.Notes.DeleteBucket(changeContext(cmd, "delete bucket "+args[0]), args[0])
		return saved(app)
	},
}

func init() {
	rootCmd.AddCommand(bucketCmd)
	bucketCmd.AddCommand(bucketAddCmd, bucketListCmd, bucketDeleteCmd)
}
