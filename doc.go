// Package notebox is the composition root for the notebox data service.
//
// It connects the domain (pkg/core) and the stores (pkg/store) with the
// storage adapters (pkg/adapters/...) using the hexagonal layout:
// the stores only see the core.Storage port.
//
// Data model:
//
//   - A Bucket holds Categories, a Category holds Notes.
//   - Every mutation rewrites the whole tree under the "buckets" key.
//   - The Theme Store keeps the current AppTheme under "selectedAppTheme".
//   - Lookups by unknown identifiers are silent no-ops.
//
// Adapters:
//
//   - fs (default): one file per key, atomic writes, optional git history.
//   - sqlite: a single key-value table (modernc.org/sqlite, no cgo).
//   - memory: for tests and throwaway sessions.
//
// Usage:
//
//	app, err := notebox.New(ctx, "./notes",
//		notebox.WithAutoInit(true),
//		notebox.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//
//	work := app.Notes.AddBucket(ctx, "Work")
//	meetings, _ := app.Notes.AddCategory(ctx, work.ID, "Meetings")
//	app.Notes.AddNote(ctx, work.ID, meetings.ID, core.NoteFields{Name: "Kickoff"})
package notebox
