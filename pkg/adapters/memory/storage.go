// Package memory provides a map-backed core.Storage.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/notebox/pkg/core"
)

type watcher struct {
	pattern string
	ch      chan core.StorageEvent
}

// Storage keeps every key in memory. It implements all optional storage
// capabilities, which makes it the reference adapter for tests.
type Storage struct {
	mu       sync.RWMutex
	data     map[string][]byte
	watchers map[*watcher]struct{}
	readOnly bool

	// FailWrites, when set, makes Set return it. Used to simulate a broken disk.
	FailWrites error
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{
		data:     make(map[string][]byte),
		watchers: make(map[*watcher]struct{}),
	}
}

// NewReadOnly creates a storage seeded with data that rejects writes.
func NewReadOnly(seed map[string][]byte) *Storage {
	s := New()
	for k, v := range seed {
		s.data[k] = append([]byte(nil), v...)
	}
	s.readOnly = true
	return s
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := core.ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements core.Storage.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	if s.readOnly {
		s.mu.Unlock()
		return core.ErrReadOnly
	}
	if s.FailWrites != nil {
		s.mu.Unlock()
		return s.FailWrites
	}
	s.data[key] = append([]byte(nil), value...)
	s.mu.Unlock()

	s.notify(core.StorageEvent{Type: core.StorageSet, Key: key, Timestamp: time.Now().Unix()})
	return nil
}

// Delete implements core.Deleter. Deleting a missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	if s.readOnly {
		s.mu.Unlock()
		return core.ErrReadOnly
	}
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()

	if existed {
		s.notify(core.StorageEvent{Type: core.StorageDelete, Key: key, Timestamp: time.Now().Unix()})
	}
	return nil
}

// Keys implements core.Lister.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Watch implements core.Watchable. The channel closes when ctx is done.
func (s *Storage) Watch(ctx context.Context, pattern string) (<-chan core.StorageEvent, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	w := &watcher{pattern: pattern, ch: make(chan core.StorageEvent, core.DefaultEventBuffer)}
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, w)
		close(w.ch)
		s.mu.Unlock()
	}()
	return w.ch, nil
}

func (s *Storage) notify(e core.StorageEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for w := range s.watchers {
		if ok, _ := doublestar.Match(w.pattern, e.Key); !ok {
			continue
		}
		select {
		case w.ch <- e:
		default:
		}
	}
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Keys     int  `json:"keys"`
	Watchers int  `json:"watchers"`
	ReadOnly bool `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{Keys: len(s.data), Watchers: len(s.watchers), ReadOnly: s.readOnly}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory-storage"
}

var (
	_ core.Storage   = (*Storage)(nil)
	_ core.Deleter   = (*Storage)(nil)
	_ core.Lister    = (*Storage)(nil)
	_ core.Watchable = (*Storage)(nil)

	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)
