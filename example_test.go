package notebox_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/notebox"
	"github.com/aretw0/notebox/pkg/core"
)

// Example_basic opens a store, adds a note and reopens the store to read it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "notebox-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()

	app, err := notebox.New(ctx, tmpDir, notebox.WithAutoInit(true), notebox.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}

	work := app.Notes.AddBucket(ctx, "Work")
	meetings, _ := app.Notes.AddCategory(ctx, work.ID, "Meetings")
	app.Notes.AddNote(ctx, work.ID, meetings.ID, core.NoteFields{Name: "Kickoff", Content: "Agenda"})
	app.Close()

	reopened, err := notebox.New(ctx, tmpDir, notebox.WithVersioning(false))
	if err != nil {
		log.Fatal(err)
	}
	defer reopened.Close()

	for _, b := range reopened.Notes.Buckets() {
		for _, c := range b.Categories {
			for _, n := range c.Notes {
				fmt.Printf("%s / %s / %s\n", b.Name, c.Name, n.Name)
			}
		}
	}
	// Output:
	// Work / Meetings / Kickoff
}

// Example_themes applies a built-in theme on an in-memory store.
func Example_themes() {
	ctx := context.Background()

	app, err := notebox.New(ctx, "", notebox.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	fmt.Println(app.Themes.Current().Name)
	app.Themes.ApplyBuiltin(ctx, "dark")
	fmt.Println(app.Themes.Current().Name)
	// Output:
	// Default
	// Dark
}
