// Package core holds the notebox domain: the Bucket/Category/Note tree, themes,
// change events and the storage port every adapter implements.
package core

import (
	"fmt"
	"time"
)

// DefaultColorTag is assigned to categories created without an explicit color.
const DefaultColorTag = "gray"

// Note is a single piece of user content with an optional attached image.
// A Note is owned by exactly one Category.
type Note struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	ImageData   []byte    `json:"imageData,omitempty"`
	ImageName   string    `json:"imageName"`
	CreatedDate time.Time `json:"createdDate"`
}

// NoteFields are the mutable fields of a Note.
// Identifier and creation date are never part of an update.
type NoteFields struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	ImageData []byte `json:"imageData,omitempty"`
	ImageName string `json:"imageName"`
}

// Category groups Notes inside a Bucket. Notes keep insertion order.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Notes    []Note `json:"notes"`
	ColorTag string `json:"colorTag"`
}

// Bucket is the top-level container of Categories.
type Bucket struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
}

// NoteRef locates a Note inside the tree.
type NoteRef struct {
	BucketID   string `json:"bucketId"`
	CategoryID string `json:"categoryId"`
	Note       Note   `json:"note"`
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	if n.ImageData != nil {
		n.ImageData = append([]byte(nil), n.ImageData...)
	}
	return n
}

// Clone returns a deep copy of the category and its notes.
func (c Category) Clone() Category {
	notes := make([]Note, len(c.Notes))
	for i, n := range c.Notes {
		notes[i] = n.Clone()
	}
	c.Notes = notes
	return c
}

// Clone returns a deep copy of the bucket and everything below it.
func (b Bucket) Clone() Bucket {
	cats := make([]Category, len(b.Categories))
	for i, c := range b.Categories {
		cats[i] = c.Clone()
	}
	b.Categories = cats
	return b
}

// CountNotes returns the number of notes nested under the bucket.
func (b Bucket) CountNotes() int {
	total := 0
	for _, c := range b.Categories {
		total += len(c.Notes)
	}
	return total
}

// EventType represents the kind of change applied to the note tree.
type EventType string

const (
	EventBucketAdded     EventType = "BUCKET_ADDED"
	EventBucketDeleted   EventType = "BUCKET_DELETED"
	EventCategoryAdded   EventType = "CATEGORY_ADDED"
	EventCategoryDeleted EventType = "CATEGORY_DELETED"
	EventCategoryUpdated EventType = "CATEGORY_UPDATED"
	EventNoteAdded       EventType = "NOTE_ADDED"
	EventNoteUpdated     EventType = "NOTE_UPDATED"
	EventNoteDeleted     EventType = "NOTE_DELETED"
	EventReloaded        EventType = "RELOADED"
	EventThemeApplied    EventType = "THEME_APPLIED"
)

// Event describes an effective mutation of a store.
type Event struct {
	Type       EventType `json:"type"`
	BucketID   string    `json:"bucketId,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	NoteID     string    `json:"noteId,omitempty"`
	ThemeID    string    `json:"themeId,omitempty"`
	Timestamp  int64     `json:"timestamp"` // Unix timestamp
}

// String renders the event as a compact path-like description.
func (e Event) String() string {
	switch {
	case e.ThemeID != "":
		return fmt.Sprintf("%s theme=%s", e.Type, e.ThemeID)
	case e.NoteID != "":
		return fmt.Sprintf("%s %s/%s/%s", e.Type, e.BucketID, e.CategoryID, e.NoteID)
	case e.CategoryID != "":
		return fmt.Sprintf("%s %s/%s", e.Type, e.BucketID, e.CategoryID)
	case e.BucketID != "":
		return fmt.Sprintf("%s %s", e.Type, e.BucketID)
	default:
		return string(e.Type)
	}
}
