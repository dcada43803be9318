package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoryColor string

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories inside a bucket",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <bucket-id> <name>",
	Short: "Create a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := changeContext(cmd, "add category "+args[1])
		c, ok := app.Notes.AddCategory(ctx, args[0], args[1])
		if !ok {
			return fmt.Errorf("bucket %s not found", args[0])
		}
		if categoryColor != "" {
			app.Notes.UpdateCategoryColorTag(ctx, args[0], c.ID, categoryColor)
			c.ColorTag = categoryColor
		}
		if err := saved(app); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, c)
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.ID)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <bucket-id> <category-id>",
	Short: "Delete a category and its notes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		app.Notes.DeleteCategory(changeContext(cmd, "delete category "+args[1]), args[0], args[1])
		return saved(app)
	},
}

var categoryColorCmd = &cobra.Command{
	Use:   "color <bucket-id> <category-id> <tag>",
	Short: "Set the color tag of a category",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if !app.Notes.UpdateCategoryColorTag(changeContext(cmd, "recolor category "+args[1]), args[0], args[1], args[2]) {
			return fmt.Errorf("category %s/%s not found", args[0], args[1])
		}
		return saved(app)
	},
}

func init() {
	rootCmd.AddCommand(categoryCmd)
	categoryCmd.AddCommand(categoryAddCmd, categoryDeleteCmd, categoryColorCmd)
	categoryAddCmd.Flags().StringVar(&categoryColor, "color", "", "Color tag (default gray)")
}
