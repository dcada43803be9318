package platform_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notebox/internal/platform"
	"github.com/aretw0/notebox/pkg/adapters/memory"
	"github.com/aretw0/notebox/pkg/calendar"
	"github.com/aretw0/notebox/pkg/core"
)

func fixedOptions() []platform.Option {
	seq := 0
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return []platform.Option{
		platform.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		platform.WithClock(func() time.Time { return now }),
		platform.WithLocation(time.UTC),
	}
}

func TestNew_WiresEverything(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()

	app, err := platform.New(ctx, "", append(fixedOptions(), platform.WithStorage(storage))...)
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Backups, "memory storage can list keys")

	b := app.Notes.AddBucket(ctx, "Work")
	assert.Equal(t, "id-1", b.ID)
	c, ok := app.Notes.AddCategory(ctx, b.ID, "Meetings")
	require.True(t, ok)
	n, ok := app.Notes.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "Kickoff"})
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), n.CreatedDate)

	app.Themes.ApplyBuiltin(ctx, "light")

	ev, err := app.Calendar.AddEvent(ctx, calendar.EventInput{
		Title: "Kickoff",
		Start: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	refs := calendar.RelatedNotes(app.Notes, ev)
	require.Len(t, refs, 1)
	assert.Equal(t, n.ID, refs[0].Note.ID)

	snap, err := app.Backups.Snapshot(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{core.KeyBuckets, core.KeyTheme, core.KeyCalendar}, snap.Keys)

	// A second App over the same storage sees the persisted state.
	again, err := platform.New(ctx, "", platform.WithStorage(storage))
	require.NoError(t, err)
	defer again.Close()
	assert.Equal(t, 1, again.Notes.CountNotes())
	assert.Equal(t, core.LightTheme.ID, again.Themes.Current().ID)
}

func TestApp_Reload(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()

	app, err := platform.New(ctx, "", platform.WithStorage(storage))
	require.NoError(t, err)
	defer app.Close()

	other, err := platform.New(ctx, "", platform.WithStorage(storage))
	require.NoError(t, err)
	defer other.Close()

	other.Notes.AddBucket(ctx, "Written elsewhere")
	assert.Empty(t, app.Notes.Buckets())

	require.NoError(t, app.Reload(ctx))
	require.Len(t, app.Notes.Buckets(), 1)
	assert.Equal(t, "Written elsewhere", app.Notes.Buckets()[0].Name)
}

func TestNew_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	app, err := platform.New(ctx, dir, platform.WithAdapter("sqlite"), platform.WithAutoInit(true))
	require.NoError(t, err)
	app.Notes.AddBucket(ctx, "Persisted")
	require.NoError(t, app.Close())

	app, err = platform.New(ctx, dir, platform.WithAdapter("sqlite"))
	require.NoError(t, err)
	defer app.Close()
	require.Len(t, app.Notes.Buckets(), 1)
	assert.Equal(t, "Persisted", app.Notes.Buckets()[0].Name)
}
