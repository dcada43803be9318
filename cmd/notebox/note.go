package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/notebox/pkg/core"
)

var (
	noteName    string
	noteContent string
	noteImage   string
	noteNoImage bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes inside a category",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <bucket-id> <category-id>",
	Short: "Create a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := core.NoteFields{Name: noteName, Content: noteContent}
		if noteImage != "" {
			data, err := os.ReadFile(noteImage)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			fields.ImageData = data
			fields.ImageName = filepath.Base(noteImage)
		}

		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		n, ok := app.Notes.AddNote(changeContext(cmd, "add note "+noteName), args[0], args[1], fields)
		if !ok {
			return fmt.Errorf("category %s/%s not found", args[0], args[1])
		}
		if err := saved(app); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, n)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n.ID)
		return nil
	},
}

// noteUpdateCmd replaces the note fields; flags that are not given keep the
// current value.
var noteUpdateCmd = &cobra.Command{
	Use:   "update <bucket-id> <category-id> <note-id>",
	Short: "Update a note",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		current, ok := app.Notes.Note(args[0], args[1], args[2])
		if !ok {
			return fmt.Errorf("note %s not found", args[2])
		}

		fields := core.NoteFields{
			Name:      current.Name,
			Content:   current.Content,
			ImageData: current.ImageData,
			ImageName: current.ImageName,
		}
		if cmd.Flags().Changed("name") {
			fields.Name = noteName
		}
		if cmd.Flags().Changed("content") {
			fields.Content = noteContent
		}
		switch {
		case noteNoImage:
			fields.ImageData, fields.ImageName = nil, ""
		case noteImage != "":
			data, err := os.ReadFile(noteImage)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			fields.ImageData, fields.ImageName = data, filepath.Base(noteImage)
		}

		n, _ := app.Notes.UpdateNote(changeContext(cmd, "update note "+args[2]), args[0], args[1], args[2], fields)
		if err := saved(app); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, n)
		}
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <bucket-id> <category-id> <note-id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		n, ok := app.Notes.Note(args[0], args[1], args[2])
		if !ok {
			return fmt.Errorf("note %s not found", args[2])
		}
		if jsonOutput {
			return printJSON(cmd, n)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n%s\n\n", n.Name, n.CreatedDate.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(out, n.Content)
		if len(n.ImageData) > 0 {
			fmt.Fprintf(out, "\n[image %s, %d bytes]\n", n.ImageName, len(n.ImageData))
		}
		return nil
	},
}

var noteDeleteCmd = &cobra.Command{
	Use:   "delete <bucket-id> <category-id> <note-id>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		app.Notes.DeleteNote(changeContext(cmd, "delete note "+args[2]), args[0], args[1], args[2])
		return saved(app)
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteUpdateCmd, noteShowCmd, noteDeleteCmd)

	for _, c := range []*cobra.Command{noteAddCmd, noteUpdateCmd} {
		c.Flags().StringVar(&noteName, "name", "", "Note title")
		c.Flags().StringVar(&noteContent, "content", "", "Note body")
		c.Flags().StringVar(&noteImage, "image", "", "Attach an image file")
	}
	noteUpdateCmd.Flags().BoolVar(&noteNoImage, "no-image", false, "Remove the attached image")
}
