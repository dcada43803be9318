package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notebox/pkg/adapters/memory"
	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/store"
)

// testConfig returns deterministic identifiers and a clock advancing one
// second per call.
func testConfig() store.Config {
	seq := 0
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return store.Config{
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		},
		Clock: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	}
}

func newNotes(t *testing.T) (*store.Notes, *memory.Storage) {
	t.Helper()
	storage := memory.New()
	return store.NewNotes(context.Background(), storage, testConfig()), storage
}

// seed builds two buckets, three categories and five notes.
func seed(t *testing.T, s *store.Notes) (work, home core.Bucket) {
	t.Helper()
	ctx := context.Background()

	work = s.AddBucket(ctx, "Work")
	home = s.AddBucket(ctx, "Home")

	meetings, ok := s.AddCategory(ctx, work.ID, "Meetings")
	require.True(t, ok)
	ideas, ok := s.AddCategory(ctx, work.ID, "Ideas")
	require.True(t, ok)
	chores, ok := s.AddCategory(ctx, home.ID, "Chores")
	require.True(t, ok)

	for i := 0; i < 2; i++ {
		_, ok = s.AddNote(ctx, work.ID, meetings.ID, core.NoteFields{Name: fmt.Sprintf("standup %d", i)})
		require.True(t, ok)
	}
	_, ok = s.AddNote(ctx, work.ID, ideas.ID, core.NoteFields{Name: "idea", ImageData: []byte{1, 2, 3}, ImageName: "sketch.png"})
	require.True(t, ok)
	for i := 0; i < 2; i++ {
		_, ok = s.AddNote(ctx, home.ID, chores.ID, core.NoteFields{Name: fmt.Sprintf("chore %d", i)})
		require.True(t, ok)
	}

	work, _ = s.Bucket(work.ID)
	home, _ = s.Bucket(home.ID)
	return work, home
}

func TestNotes_Scenario(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	require.Empty(t, s.Buckets())

	bucket := s.AddBucket(ctx, "Work")
	category, ok := s.AddCategory(ctx, bucket.ID, "Meetings")
	require.True(t, ok)
	assert.Equal(t, core.DefaultColorTag, category.ColorTag)

	note, ok := s.AddNote(ctx, bucket.ID, category.ID, core.NoteFields{Name: "Untitled", Content: ""})
	require.True(t, ok)

	buckets := s.Buckets()
	require.Len(t, buckets, 1)
	require.Len(t, buckets[0].Categories, 1)
	require.Len(t, buckets[0].Categories[0].Notes, 1)
	assert.Equal(t, note.ID, buckets[0].Categories[0].Notes[0].ID)

	raw, err := storage.Get(ctx, core.KeyBuckets)
	require.NoError(t, err)

	var persisted []core.Bucket
	require.NoError(t, json.Unmarshal(raw, &persisted))
	if diff := cmp.Diff(buckets, persisted); diff != "" {
		t.Errorf("persisted tree mismatch (-memory +persisted):\n%s", diff)
	}
}

func TestNotes_PersistedLayout(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	seed(t, s)

	raw, err := storage.Get(ctx, core.KeyBuckets)
	require.NoError(t, err)

	var layout []map[string]any
	require.NoError(t, json.Unmarshal(raw, &layout))
	require.Len(t, layout, 2)
	assert.ElementsMatch(t, []string{"id", "name", "categories"}, keys(layout[0]))

	cat := layout[0]["categories"].([]any)[1].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "name", "notes", "colorTag"}, keys(cat))

	note := cat["notes"].([]any)[0].(map[string]any)
	assert.ElementsMatch(t, []string{"id", "name", "content", "imageData", "imageName", "createdDate"}, keys(note))
	assert.Equal(t, "AQID", note["imageData"], "image bytes are base64 encoded")
	_, err = time.Parse(time.RFC3339Nano, note["createdDate"].(string))
	assert.NoError(t, err)
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestNotes_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	work, _ := seed(t, s)

	// Mix in deletes and updates before reloading.
	s.DeleteCategory(ctx, work.ID, work.Categories[1].ID)
	s.UpdateCategoryColorTag(ctx, work.ID, work.Categories[0].ID, "blue")

	reloaded := store.NewNotes(ctx, storage, testConfig())
	if diff := cmp.Diff(s.Buckets(), reloaded.Buckets()); diff != "" {
		t.Errorf("round trip mismatch (-before +after):\n%s", diff)
	}
}

func TestNotes_DeleteBucketCascades(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	work, home := seed(t, s)

	before := s.CountNotes()
	require.Equal(t, 5, before)

	s.DeleteBucket(ctx, work.ID)
	assert.Equal(t, before-work.CountNotes(), s.CountNotes())

	_, ok := s.Bucket(work.ID)
	assert.False(t, ok)
	_, ok = s.Category(work.ID, work.Categories[0].ID)
	assert.False(t, ok)

	reloaded := store.NewNotes(ctx, storage, testConfig())
	require.Len(t, reloaded.Buckets(), 1)
	assert.Equal(t, home.ID, reloaded.Buckets()[0].ID)
}

func TestNotes_DeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	work, _ := seed(t, s)

	s.DeleteCategory(ctx, work.ID, work.Categories[0].ID)
	assert.Equal(t, 3, s.CountNotes())

	b, _ := s.Bucket(work.ID)
	require.Len(t, b.Categories, 1)
	assert.Equal(t, "Ideas", b.Categories[0].Name)
}

func TestNotes_AddThenUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	b := s.AddBucket(ctx, "Work")
	c, _ := s.AddCategory(ctx, b.ID, "Meetings")

	added, ok := s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "Untitled", Content: "Enter note content...", ImageName: "old.png", ImageData: []byte("old")})
	require.True(t, ok)

	update := core.NoteFields{Name: "Retro", Content: "went well", ImageData: []byte("png"), ImageName: "board.png"}
	updated, ok := s.UpdateNote(ctx, b.ID, c.ID, added.ID, update)
	require.True(t, ok)

	want := core.Note{
		ID:          added.ID,
		Name:        "Retro",
		Content:     "went well",
		ImageData:   []byte("png"),
		ImageName:   "board.png",
		CreatedDate: added.CreatedDate,
	}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Errorf("updated note mismatch (-want +got):\n%s", diff)
	}

	stored, ok := s.Note(b.ID, c.ID, added.ID)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(want, stored))
}

func TestNotes_AppendOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	b := s.AddBucket(ctx, "Work")
	c, _ := s.AddCategory(ctx, b.ID, "Meetings")

	for _, name := range []string{"first", "second", "third"} {
		s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: name})
	}

	cat, _ := s.Category(b.ID, c.ID)
	var names []string
	for _, n := range cat.Notes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestNotes_UpdateNoteImage(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	b := s.AddBucket(ctx, "Work")
	c, _ := s.AddCategory(ctx, b.ID, "Meetings")
	n, _ := s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "photo", ImageName: "cam.jpg"})

	got, ok := s.UpdateNoteImage(ctx, b.ID, c.ID, n.ID, []byte{0xFF, 0xD8})
	require.True(t, ok)
	assert.Equal(t, []byte{0xFF, 0xD8}, got.ImageData)
	assert.Equal(t, "cam.jpg", got.ImageName)
	assert.Equal(t, "photo", got.Name)
}

func TestNotes_UnknownIdentifiersAreNoOps(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	work, _ := seed(t, s)
	cat := work.Categories[0]
	note := cat.Notes[0]

	before := s.Buckets()
	rawBefore, err := storage.Get(ctx, core.KeyBuckets)
	require.NoError(t, err)

	events := s.Subscribe(ctx)

	s.DeleteBucket(ctx, "missing")
	s.DeleteCategory(ctx, "missing", cat.ID)
	s.DeleteCategory(ctx, work.ID, "missing")
	s.DeleteNote(ctx, work.ID, cat.ID, "missing")
	s.DeleteNote(ctx, "missing", cat.ID, note.ID)

	_, ok := s.AddCategory(ctx, "missing", "x")
	assert.False(t, ok)
	_, ok = s.AddNote(ctx, work.ID, "missing", core.NoteFields{Name: "x"})
	assert.False(t, ok)
	_, ok = s.UpdateNote(ctx, work.ID, cat.ID, "missing", core.NoteFields{Name: "x"})
	assert.False(t, ok)
	_, ok = s.UpdateNoteImage(ctx, "missing", cat.ID, note.ID, []byte("x"))
	assert.False(t, ok)
	assert.False(t, s.UpdateCategoryColorTag(ctx, work.ID, "missing", "red"))

	if diff := cmp.Diff(before, s.Buckets()); diff != "" {
		t.Errorf("store changed (-before +after):\n%s", diff)
	}
	rawAfter, err := storage.Get(ctx, core.KeyBuckets)
	require.NoError(t, err)
	assert.Equal(t, string(rawBefore), string(rawAfter))
	assert.Len(t, events, 0, "lookup misses must not emit events")
}

func TestNotes_CorruptedBlob(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"garbage": "{not json",
		"empty":   "",
		"wrong":   `{"id":"not-an-array"}`,
	} {
		t.Run(name, func(t *testing.T) {
			storage := memory.New()
			require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte(blob)))

			s := store.NewNotes(ctx, storage, testConfig())
			assert.NotNil(t, s.Buckets())
			assert.Empty(t, s.Buckets())

			// The store stays usable.
			b := s.AddBucket(ctx, "Work")
			assert.Equal(t, "Work", b.Name)
		})
	}
}

func TestNotes_PersistFailureKeepsPreviousValue(t *testing.T) {
	ctx := context.Background()
	s, storage := newNotes(t)
	s.AddBucket(ctx, "Work")
	rawBefore, _ := storage.Get(ctx, core.KeyBuckets)

	boom := errors.New("disk full")
	storage.FailWrites = boom

	b := s.AddBucket(ctx, "Home")
	assert.Equal(t, "Home", b.Name, "mutation still succeeds in memory")
	assert.Len(t, s.Buckets(), 2)

	rawAfter, _ := storage.Get(ctx, core.KeyBuckets)
	assert.Equal(t, string(rawBefore), string(rawAfter))

	state := s.State().(store.NotesState)
	assert.Equal(t, "disk full", state.LastError)
	assert.ErrorIs(t, s.LastError(), boom)

	assert.ErrorIs(t, s.Persist(ctx), boom)

	storage.FailWrites = nil
	require.NoError(t, s.Persist(ctx))
	assert.NoError(t, s.LastError())
	reloaded := store.NewNotes(ctx, storage, testConfig())
	assert.Len(t, reloaded.Buckets(), 2)
}

func TestNotes_SnapshotsAreCopies(t *testing.T) {
	s, _ := newNotes(t)
	work, _ := seed(t, s)

	snapshot := s.Buckets()
	snapshot[0].Name = "mutated"
	snapshot[0].Categories[1].Notes[0].ImageData[0] = 9

	b, _ := s.Bucket(work.ID)
	assert.Equal(t, "Work", b.Name)
	assert.Equal(t, byte(1), b.Categories[1].Notes[0].ImageData[0])
}

func TestNotes_Events(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, _ := newNotes(t)
	events := s.Subscribe(ctx)

	b := s.AddBucket(ctx, "Work")
	c, _ := s.AddCategory(ctx, b.ID, "Meetings")
	n, _ := s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "x"})
	s.UpdateNote(ctx, b.ID, c.ID, n.ID, core.NoteFields{Name: "y"})
	s.DeleteNote(ctx, b.ID, c.ID, n.ID)
	s.UpdateCategoryColorTag(ctx, b.ID, c.ID, "red")
	s.DeleteCategory(ctx, b.ID, c.ID)
	s.DeleteBucket(ctx, b.ID)

	want := []core.EventType{
		core.EventBucketAdded,
		core.EventCategoryAdded,
		core.EventNoteAdded,
		core.EventNoteUpdated,
		core.EventNoteDeleted,
		core.EventCategoryUpdated,
		core.EventCategoryDeleted,
		core.EventBucketDeleted,
	}
	require.Len(t, events, len(want))
	for _, typ := range want {
		e := <-events
		assert.Equal(t, typ, e.Type)
		assert.Equal(t, b.ID, e.BucketID)
		assert.NotZero(t, e.Timestamp)
	}
}

func TestNotes_Reload(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	s := store.NewNotes(ctx, storage, testConfig())
	other := store.NewNotes(ctx, storage, testConfig())

	other.AddBucket(ctx, "External")
	require.Empty(t, s.Buckets())

	require.NoError(t, s.Reload(ctx))
	require.Len(t, s.Buckets(), 1)
	assert.Equal(t, "External", s.Buckets()[0].Name)

	// A corrupted value is reported and the tree is kept.
	require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte("{")))
	assert.Error(t, s.Reload(ctx))
	assert.Len(t, s.Buckets(), 1)

	// A missing value empties the store.
	require.NoError(t, storage.Delete(ctx, core.KeyBuckets))
	require.NoError(t, s.Reload(ctx))
	assert.Empty(t, s.Buckets())
}

func TestNotes_NotesCreatedBetween(t *testing.T) {
	ctx := context.Background()
	s, _ := newNotes(t)
	b := s.AddBucket(ctx, "Work")
	c, _ := s.AddCategory(ctx, b.ID, "Meetings")
	first, _ := s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "first"})
	second, _ := s.AddNote(ctx, b.ID, c.ID, core.NoteFields{Name: "second"})

	refs := s.NotesCreatedBetween(first.CreatedDate, second.CreatedDate)
	require.Len(t, refs, 1)
	assert.Equal(t, first.ID, refs[0].Note.ID)
	assert.Equal(t, b.ID, refs[0].BucketID)
	assert.Equal(t, c.ID, refs[0].CategoryID)

	assert.Len(t, s.NotesCreatedBetween(first.CreatedDate, second.CreatedDate.Add(time.Nanosecond)), 2)
	assert.Empty(t, s.NotesCreatedBetween(second.CreatedDate.Add(time.Hour), second.CreatedDate.Add(2*time.Hour)))
}

func TestNotes_State(t *testing.T) {
	s, _ := newNotes(t)
	seed(t, s)

	state, ok := s.State().(store.NotesState)
	require.True(t, ok)
	assert.Equal(t, 2, state.Buckets)
	assert.Equal(t, 3, state.Categories)
	assert.Equal(t, 5, state.Notes)
	assert.Equal(t, "memory-storage", state.StorageType)
	assert.NotNil(t, state.LastPersist)
	assert.Equal(t, "note-store", s.ComponentType())
}

func TestNotes_EventsFollowMutationOrder(t *testing.T) {
	ctx := context.Background()
	const writers, rounds = 8, 25

	// Default uuid ids and wall clock: safe for concurrent writers.
	s := store.NewNotes(ctx, memory.New(), store.Config{EventBuffer: 2 * writers * rounds})
	defer s.Close()
	events := s.Subscribe(ctx)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				b := s.AddBucket(ctx, "tmp")
				s.DeleteBucket(ctx, b.ID)
			}
		}()
	}
	wg.Wait()

	added := map[string]bool{}
	for i := 0; i < 2*writers*rounds; i++ {
		e := <-events
		switch e.Type {
		case core.EventBucketAdded:
			added[e.BucketID] = true
		case core.EventBucketDeleted:
			require.True(t, added[e.BucketID], "delete of %s seen before its add", e.BucketID)
		}
	}
	assert.Empty(t, s.Buckets())
}
