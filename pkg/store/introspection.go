package store

import (
	"time"

	"github.com/aretw0/introspection"
)

// NotesState exposes internal state for observability.
type NotesState struct {
	Buckets     int        `json:"buckets"`
	Categories  int        `json:"categories"`
	Notes       int        `json:"notes"`
	Subscribers int        `json:"subscribers"`
	EventBuffer int        `json:"event_buffer_size"`
	StorageType string     `json:"storage_type"`
	LastPersist *time.Time `json:"last_persist,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Notes) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := NotesState{
		Buckets:     len(s.buckets),
		Subscribers: s.broker.Subscribers(),
		EventBuffer: s.broker.BufferSize(),
		StorageType: storageType(s.storage),
		LastPersist: s.lastPersist,
	}
	for _, b := range s.buckets {
		st.Categories += len(b.Categories)
		st.Notes += b.CountNotes()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Notes) ComponentType() string {
	return "note-store"
}

// ThemesState exposes internal state for observability.
type ThemesState struct {
	ThemeID     string `json:"theme_id"`
	ThemeName   string `json:"theme_name"`
	Subscribers int    `json:"subscribers"`
	LastError   string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Themes) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := ThemesState{
		ThemeID:     s.current.ID,
		ThemeName:   s.current.Name,
		Subscribers: s.broker.Subscribers(),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (s *Themes) ComponentType() string {
	return "theme-store"
}

func storageType(storage any) string {
	if comp, ok := storage.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return "storage"
}

var (
	_ introspection.Introspectable = (*Notes)(nil)
	_ introspection.Component      = (*Notes)(nil)
	_ introspection.Introspectable = (*Themes)(nil)
	_ introspection.Component      = (*Themes)(nil)
)
