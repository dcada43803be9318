// Package backup snapshots the persisted notebox keys inside the same
// storage, under backups/<id>/<key>.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/notebox/pkg/core"
)

// IDLayout formats snapshot ids. Ids sort lexicographically by time.
const IDLayout = "20060102T150405.000000000Z"

var (
	// ErrUnsupported is returned when the storage cannot list or delete keys.
	ErrUnsupported = errors.New("storage does not support listing")
	// ErrNothingToBackup is returned when none of the keys exist yet.
	ErrNothingToBackup = errors.New("nothing to back up")
)

// DefaultKeys are the keys copied by a snapshot.
var DefaultKeys = []string{core.KeyBuckets, core.KeyTheme, core.KeyCalendar}

// Snapshot describes one stored backup.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Keys      []string  `json:"keys"`
}

// Config configures a Manager.
type Config struct {
	Keys   []string // defaults to DefaultKeys
	Logger *slog.Logger
	Clock  func() time.Time
}

// storage is what the manager needs beyond core.Storage.
type storage interface {
	core.Storage
	core.Lister
}

// Manager creates, lists, restores and prunes snapshots.
type Manager struct {
	storage storage
	keys    []string
	logger  *slog.Logger
	clock   func() time.Time

	mu sync.Mutex
}

// New creates a Manager. The storage must implement core.Lister.
func New(s core.Storage, cfg Config) (*Manager, error) {
	ls, ok := s.(storage)
	if !ok {
		return nil, ErrUnsupported
	}
	if len(cfg.Keys) == 0 {
		cfg.Keys = DefaultKeys
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Manager{
		storage: ls,
		keys:    cfg.Keys,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
	}, nil
}

// Snapshot copies every existing key into a new backup.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock().UTC()
	snap := Snapshot{ID: now.Format(IDLayout), CreatedAt: now}

	existing, err := m.storage.Keys(ctx, keyFor(snap.ID, ""))
	if err != nil {
		return Snapshot{}, err
	}
	if len(existing) > 0 {
		return Snapshot{}, fmt.Errorf("snapshot %s already exists", snap.ID)
	}

	for _, key := range m.keys {
		data, err := m.storage.Get(ctx, key)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if err := m.storage.Set(ctx, keyFor(snap.ID, key), data); err != nil {
			return Snapshot{}, fmt.Errorf("failed to copy %s: %w", key, err)
		}
		snap.Keys = append(snap.Keys, key)
	}
	if len(snap.Keys) == 0 {
		return Snapshot{}, ErrNothingToBackup
	}

	m.logger.Info("snapshot created", "id", snap.ID, "keys", snap.Keys)
	return snap, nil
}

// List returns the stored snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	keys, err := m.storage.Keys(ctx, core.BackupsKey+"/")
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Snapshot)
	for _, k := range keys {
		rest := strings.TrimPrefix(k, core.BackupsKey+"/")
		id, key, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		created, err := time.Parse(IDLayout, id)
		if err != nil {
			m.logger.Debug("ignoring foreign backup entry", "key", k)
			continue
		}
		s, ok := byID[id]
		if !ok {
			s = &Snapshot{ID: id, CreatedAt: created}
			byID[id] = s
		}
		s.Keys = append(s.Keys, key)
	}

	out := make([]Snapshot, 0, len(byID))
	for _, s := range byID {
		sort.Strings(s.Keys)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Restore copies a snapshot back over the live keys. Live keys absent from
// the snapshot are deleted when the storage supports it.
func (m *Manager) Restore(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	var snap *Snapshot
	for i := range snaps {
		if snaps[i].ID == id {
			snap = &snaps[i]
			break
		}
	}
	if snap == nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, core.ErrNotFound)
	}

	restored := make(map[string]bool)
	for _, key := range snap.Keys {
		data, err := m.storage.Get(ctx, keyFor(id, key))
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to read backup of %s: %w", key, err)
		}
		if err := m.storage.Set(ctx, key, data); err != nil {
			return Snapshot{}, fmt.Errorf("failed to restore %s: %w", key, err)
		}
		restored[key] = true
	}

	if del, ok := m.storage.(core.Deleter); ok {
		for _, key := range m.keys {
			if restored[key] {
				continue
			}
			if err := del.Delete(ctx, key); err != nil {
				return Snapshot{}, fmt.Errorf("failed to clear %s: %w", key, err)
			}
		}
	}

	m.logger.Info("snapshot restored", "id", id, "keys", snap.Keys)
	return *snap, nil
}

// Prune deletes all but the newest keep snapshots and returns the removed ids.
func (m *Manager) Prune(ctx context.Context, keep int) ([]string, error) {
	del, ok := m.storage.(core.Deleter)
	if !ok {
		return nil, ErrUnsupported
	}
	if keep < 0 {
		keep = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snaps, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(snaps) <= keep {
		return nil, nil
	}

	var removed []string
	for _, s := range snaps[keep:] {
		for _, key := range s.Keys {
			if err := del.Delete(ctx, keyFor(s.ID, key)); err != nil {
				return removed, fmt.Errorf("failed to prune %s: %w", s.ID, err)
			}
		}
		removed = append(removed, s.ID)
	}
	m.logger.Info("snapshots pruned", "removed", len(removed), "kept", keep)
	return removed, nil
}

func keyFor(id, key string) string {
	if key == "" {
		return core.BackupsKey + "/" + id + "/"
	}
	return path.Join(core.BackupsKey, id, key)
}
