// Package calendar provides the calendar collaborator used to cross-reference
// notes with meetings.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/notebox/pkg/core"
)

// ErrInvalidEvent is returned for events that cannot be stored.
var ErrInvalidEvent = errors.New("invalid event")

// Event is a single calendar occurrence. Recurring events yield one Event
// per occurrence sharing the same UID.
type Event struct {
	UID   string    `json:"uid"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	RRule string    `json:"rrule,omitempty"`
}

// EventInput describes an event to create.
type EventInput struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	RRule string    `json:"rrule,omitempty"` // RFC 5545 rule, e.g. "FREQ=WEEKLY;COUNT=4"
}

// Service is the calendar capability the rest of the system depends on.
type Service interface {
	// EventsBetween lists occurrences overlapping [start, end), sorted by start.
	EventsBetween(ctx context.Context, start, end time.Time) ([]Event, error)
	// EventsOn lists the occurrences of the local calendar day containing day.
	EventsOn(ctx context.Context, day time.Time) ([]Event, error)
	// AddEvent stores a new event and returns its first occurrence.
	AddEvent(ctx context.Context, in EventInput) (Event, error)
}

// NoteFinder is the slice of the Note Store that RelatedNotes needs.
type NoteFinder interface {
	NotesCreatedBetween(start, end time.Time) []core.NoteRef
}

// RelatedNotes returns the notes written while the event was running.
func RelatedNotes(finder NoteFinder, e Event) []core.NoteRef {
	end := e.End
	if !end.After(e.Start) {
		end = e.Start.Add(time.Nanosecond)
	}
	return finder.NotesCreatedBetween(e.Start, end)
}

// DayRange returns [midnight, next midnight) of the day containing t in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
