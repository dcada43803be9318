package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox/pkg/core"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or select the app theme",
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		t := app.Themes.Current()
		if jsonOutput {
			return printJSON(cmd, t)
		}
		printTheme(cmd, t)
		return nil
	},
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		themes := core.BuiltinThemes()
		if jsonOutput {
			return printJSON(cmd, themes)
		}
		for _, t := range themes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", t.ID, t.Name)
		}
		return nil
	},
}

var themeApplyCmd = &cobra.Command{
	Use:   "apply <id-or-name>",
	Short: "Select a built-in theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		t, ok := app.Themes.ApplyBuiltin(changeContext(cmd, "apply theme "+args[0]), args[0])
		if !ok {
			return fmt.Errorf("unknown theme %q", args[0])
		}
		if err := saved(app); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Theme set to", t.Name)
		return nil
	},
}

func printTheme(cmd *cobra.Command, t core.AppTheme) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", t.Name, t.ID)
	fmt.Fprintf(out, "  primary     %s\n", t.Primary)
	fmt.Fprintf(out, "  secondary   %s\n", t.Secondary)
	fmt.Fprintf(out, "  background  %s\n", t.Background)
	fmt.Fprintf(out, "  card        %s\n", t.NoteCardBackground)
	fmt.Fprintf(out, "  border      %s\n", t.Border)
	fmt.Fprintf(out, "  shadow      %s\n", t.Shadow)
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeShowCmd, themeListCmd, themeApplyCmd)
}
