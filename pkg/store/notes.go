package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/typed"
)

// Notes owns the Bucket → Category → Note tree and its persistence.
//
// Lookups by unknown identifiers are silent no-ops: mutations report
// success through a boolean (where a value is returned) and never an error.
// Persistence failures are logged; the previously persisted value is kept.
type Notes struct {
	mu      sync.RWMutex
	buckets []core.Bucket

	storage core.Storage
	value   *typed.Value[[]core.Bucket]
	broker  *core.Broker

	logger *slog.Logger
	clock  func() time.Time
	newID  func() string

	lastPersist *time.Time
	lastErr     error
}

// NewNotes creates a Note Store and loads the persisted tree.
// A missing or undecodable value yields an empty store.
func NewNotes(ctx context.Context, storage core.Storage, cfg Config) *Notes {
	cfg = cfg.withDefaults()
	s := &Notes{
		buckets: []core.Bucket{},
		storage: storage,
		value:   typed.NewValue[[]core.Bucket](storage, core.KeyBuckets),
		broker:  core.NewBroker(cfg.EventBuffer, cfg.Logger),
		logger:  cfg.Logger,
		clock:   cfg.Clock,
		newID:   cfg.NewID,
	}
	s.load(ctx)
	return s
}

func (s *Notes) load(ctx context.Context) {
	buckets, err := s.value.Load(ctx)
	switch {
	case errors.Is(err, core.ErrNotFound):
		s.logger.Debug("no persisted buckets, starting empty")
	case err != nil:
		s.logger.Warn("failed to load buckets, starting empty", "error", err)
	default:
		s.buckets = normalize(buckets)
		s.logger.Debug("buckets loaded", "buckets", len(s.buckets))
	}
}

// Reload re-reads the persisted tree, e.g. after an external change.
// A missing value empties the store; a decode failure keeps the current tree.
//
// The read happens under the write lock so a reload can never replace a
// mutation persisted after the read.
func (s *Notes) Reload(ctx context.Context) error {
	s.mu.Lock()
	buckets, err := s.value.Load(ctx)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		s.mu.Unlock()
		return fmt.Errorf("reload buckets: %w", err)
	}
	s.buckets = normalize(buckets)
	s.publish(core.Event{Type: core.EventReloaded})
	s.mu.Unlock()
	return nil
}

// Persist serializes the whole tree under core.KeyBuckets.
func (s *Notes) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Notes) persistLocked(ctx context.Context) error {
	if err := s.value.Save(ctx, s.buckets); err != nil {
		s.lastErr = err
		s.logger.Error("failed to persist buckets", "error", err)
		return err
	}
	now := s.clock()
	s.lastPersist = &now
	s.lastErr = nil
	s.logger.Debug("buckets persisted", "buckets", len(s.buckets))
	return nil
}

// LastError returns the error of the most recent persist. Mutations never
// return it, callers that need to know check here afterwards.
func (s *Notes) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe returns a stream of change events, closed when ctx is done.
func (s *Notes) Subscribe(ctx context.Context) <-chan core.Event {
	return s.broker.Subscribe(ctx)
}

// Close releases every subscriber.
func (s *Notes) Close() {
	s.broker.Close()
}

// publish runs under s.mu so subscribers observe mutations in commit order.
// The broker never blocks.
func (s *Notes) publish(e core.Event) {
	e.Timestamp = s.clock().Unix()
	s.broker.Publish(e)
}

// --- Buckets ---

// AddBucket appends a new empty bucket and persists.
func (s *Notes) AddBucket(ctx context.Context, name string) core.Bucket {
	b := core.Bucket{ID: s.newID(), Name: name, Categories: []core.Category{}}

	s.mu.Lock()
	s.buckets = append(s.buckets, b)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventBucketAdded, BucketID: b.ID})
	s.mu.Unlock()
	return b.Clone()
}

// DeleteBucket removes a bucket together with its categories and notes.
func (s *Notes) DeleteBucket(ctx context.Context, bucketID string) {
	s.mu.Lock()
	bi := s.bucketIndex(bucketID)
	if bi < 0 {
		s.mu.Unlock()
		return
	}
	s.buckets = append(s.buckets[:bi], s.buckets[bi+1:]...)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventBucketDeleted, BucketID: bucketID})
	s.mu.Unlock()
}

// --- Categories ---

// AddCategory appends a new empty category to the bucket.
// It reports false when the bucket is unknown.
func (s *Notes) AddCategory(ctx context.Context, bucketID, name string) (core.Category, bool) {
	s.mu.Lock()
	bi := s.bucketIndex(bucketID)
	if bi < 0 {
		s.mu.Unlock()
		return core.Category{}, false
	}
	c := core.Category{ID: s.newID(), Name: name, Notes: []core.Note{}, ColorTag: core.DefaultColorTag}
	s.buckets[bi].Categories = append(s.buckets[bi].Categories, c)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventCategoryAdded, BucketID: bucketID, CategoryID: c.ID})
	s.mu.Unlock()
	return c.Clone(), true
}

// DeleteCategory removes a category and its notes.
func (s *Notes) DeleteCategory(ctx context.Context, bucketID, categoryID string) {
	s.mu.Lock()
	bi, ci := s.categoryIndex(bucketID, categoryID)
	if ci < 0 {
		s.mu.Unlock()
		return
	}
	cats := s.buckets[bi].Categories
	s.buckets[bi].Categories = append(cats[:ci], cats[ci+1:]...)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventCategoryDeleted, BucketID: bucketID, CategoryID: categoryID})
	s.mu.Unlock()
}

// UpdateCategoryColorTag replaces the category's display color tag.
func (s *Notes) UpdateCategoryColorTag(ctx context.Context, bucketID, categoryID, colorTag string) bool {
	s.mu.Lock()
	bi, ci := s.categoryIndex(bucketID, categoryID)
	if ci < 0 {
		s.mu.Unlock()
		return false
	}
	s.buckets[bi].Categories[ci].ColorTag = colorTag
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventCategoryUpdated, BucketID: bucketID, CategoryID: categoryID})
	s.mu.Unlock()
	return true
}

// --- Notes ---

// AddNote appends a note with a fresh identifier and the current time
// at the tail of the category.
func (s *Notes) AddNote(ctx context.Context, bucketID, categoryID string, fields core.NoteFields) (core.Note, bool) {
	s.mu.Lock()
	bi, ci := s.categoryIndex(bucketID, categoryID)
	if ci < 0 {
		s.mu.Unlock()
		return core.Note{}, false
	}
	n := core.Note{ID: s.newID(), CreatedDate: s.clock().UTC()}
	applyFields(&n, fields)

	cat := &s.buckets[bi].Categories[ci]
	cat.Notes = append(cat.Notes, n)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventNoteAdded, BucketID: bucketID, CategoryID: categoryID, NoteID: n.ID})
	s.mu.Unlock()
	return n.Clone(), true
}

// UpdateNote replaces name, content, image payload and image name.
// Identifier and creation date are preserved.
func (s *Notes) UpdateNote(ctx context.Context, bucketID, categoryID, noteID string, fields core.NoteFields) (core.Note, bool) {
	return s.mutateNote(ctx, bucketID, categoryID, noteID, func(n *core.Note) {
		applyFields(n, fields)
	})
}

// UpdateNoteImage replaces only the image payload of a note.
func (s *Notes) UpdateNoteImage(ctx context.Context, bucketID, categoryID, noteID string, data []byte) (core.Note, bool) {
	return s.mutateNote(ctx, bucketID, categoryID, noteID, func(n *core.Note) {
		n.ImageData = cloneBytes(data)
	})
}

func (s *Notes) mutateNote(ctx context.Context, bucketID, categoryID, noteID string, fn func(*core.Note)) (core.Note, bool) {
	s.mu.Lock()
	bi, ci, ni := s.noteIndex(bucketID, categoryID, noteID)
	if ni < 0 {
		s.mu.Unlock()
		return core.Note{}, false
	}
	n := &s.buckets[bi].Categories[ci].Notes[ni]
	fn(n)
	updated := n.Clone()
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventNoteUpdated, BucketID: bucketID, CategoryID: categoryID, NoteID: noteID})
	s.mu.Unlock()
	return updated, true
}

// DeleteNote removes a note from its category.
func (s *Notes) DeleteNote(ctx context.Context, bucketID, categoryID, noteID string) {
	s.mu.Lock()
	bi, ci, ni := s.noteIndex(bucketID, categoryID, noteID)
	if ni < 0 {
		s.mu.Unlock()
		return
	}
	cat := &s.buckets[bi].Categories[ci]
	cat.Notes = append(cat.Notes[:ni], cat.Notes[ni+1:]...)
	_ = s.persistLocked(ctx)
	s.publish(core.Event{Type: core.EventNoteDeleted, BucketID: bucketID, CategoryID: categoryID, NoteID: noteID})
	s.mu.Unlock()
}

// --- Reads ---

// Buckets returns a deep copy of the tree in insertion order.
func (s *Notes) Buckets() []core.Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Bucket, len(s.buckets))
	for i, b := range s.buckets {
		out[i] = b.Clone()
	}
	return out
}

// Bucket returns a copy of the bucket with the given id.
func (s *Notes) Bucket(bucketID string) (core.Bucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bi := s.bucketIndex(bucketID)
	if bi < 0 {
		return core.Bucket{}, false
	}
	return s.buckets[bi].Clone(), true
}

// Category returns a copy of the category.
func (s *Notes) Category(bucketID, categoryID string) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bi, ci := s.categoryIndex(bucketID, categoryID)
	if ci < 0 {
		return core.Category{}, false
	}
	return s.buckets[bi].Categories[ci].Clone(), true
}

// Note returns a copy of the note.
func (s *Notes) Note(bucketID, categoryID, noteID string) (core.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bi, ci, ni := s.noteIndex(bucketID, categoryID, noteID)
	if ni < 0 {
		return core.Note{}, false
	}
	return s.buckets[bi].Categories[ci].Notes[ni].Clone(), true
}

// CountNotes returns the number of notes in the whole tree.
func (s *Notes) CountNotes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, b := range s.buckets {
		total += b.CountNotes()
	}
	return total
}

// NotesCreatedBetween returns every note created in [start, end), in tree order.
func (s *Notes) NotesCreatedBetween(start, end time.Time) []core.NoteRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []core.NoteRef
	for _, b := range s.buckets {
		for _, c := range b.Categories {
			for _, n := range c.Notes {
				if n.CreatedDate.Before(start) || !n.CreatedDate.Before(end) {
					continue
				}
				refs = append(refs, core.NoteRef{BucketID: b.ID, CategoryID: c.ID, Note: n.Clone()})
			}
		}
	}
	return refs
}

// --- Lookups (linear scans, callers hold the lock) ---

func (s *Notes) bucketIndex(bucketID string) int {
	for i := range s.buckets {
		if s.buckets[i].ID == bucketID {
			return i
		}
	}
	return -1
}

func (s *Notes) categoryIndex(bucketID, categoryID string) (int, int) {
	bi := s.bucketIndex(bucketID)
	if bi < 0 {
		return -1, -1
	}
	for ci := range s.buckets[bi].Categories {
		if s.buckets[bi].Categories[ci].ID == categoryID {
			return bi, ci
		}
	}
	return bi, -1
}

func (s *Notes) noteIndex(bucketID, categoryID, noteID string) (int, int, int) {
	bi, ci := s.categoryIndex(bucketID, categoryID)
	if ci < 0 {
		return bi, ci, -1
	}
	for ni := range s.buckets[bi].Categories[ci].Notes {
		if s.buckets[bi].Categories[ci].Notes[ni].ID == noteID {
			return bi, ci, ni
		}
	}
	return bi, ci, -1
}

func applyFields(n *core.Note, f core.NoteFields) {
	n.Name = f.Name
	n.Content = f.Content
	n.ImageData = cloneBytes(f.ImageData)
	n.ImageName = f.ImageName
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// normalize replaces nil collections with empty ones so the in-memory tree
// and its decoded form compare equal.
func normalize(buckets []core.Bucket) []core.Bucket {
	if buckets == nil {
		return []core.Bucket{}
	}
	for bi := range buckets {
		if buckets[bi].Categories == nil {
			buckets[bi].Categories = []core.Category{}
		}
		for ci := range buckets[bi].Categories {
			cat := &buckets[bi].Categories[ci]
			if cat.Notes == nil {
				cat.Notes = []core.Note{}
			}
			for ni := range cat.Notes {
				cat.Notes[ni].ImageData = cloneBytes(cat.Notes[ni].ImageData)
			}
		}
	}
	return buckets
}
