package core

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Well-known storage keys.
const (
	KeyBuckets  = "buckets"
	KeyTheme    = "selectedAppTheme"
	KeyCalendar = "calendar.ics"
	BackupsKey  = "backups"
)

// Storage defines the contract for durable key-value persistence.
// Adhering to this interface keeps the stores independent of the
// underlying mechanism (memory, filesystem, SQL).
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// Initializer is implemented by storages that need setup (mkdir, schema, git init).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Deleter is implemented by storages that can remove keys.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Lister is implemented by storages that can enumerate keys.
type Lister interface {
	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// StorageEventType represents the type of change to a storage key.
type StorageEventType string

const (
	StorageSet    StorageEventType = "SET"
	StorageDelete StorageEventType = "DELETE"
)

// StorageEvent represents a change observed on a storage key.
type StorageEvent struct {
	Type      StorageEventType
	Key       string
	Timestamp int64 // Unix timestamp
}

func (e StorageEvent) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Key)
}

// Watchable is implemented by storages that can report changes.
// Pattern is a doublestar glob matched against keys ("*" or "**" for everything).
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan StorageEvent, error)
}

// ValidateKey rejects empty keys, absolute keys and keys escaping their root.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

type contextKey string

// ChangeReasonKey is the context key for a change reason. Versioned storages
// use it as the commit message.
const ChangeReasonKey contextKey = "change_reason"

// WithChangeReason annotates ctx with a change reason.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, ChangeReasonKey, reason)
}
