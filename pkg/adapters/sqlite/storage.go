// Package sqlite implements core.Storage as a key-value table in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aretw0/introspection"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/aretw0/notebox/pkg/core"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// DefaultTable holds one row per storage key.
const DefaultTable = "kv_entries"

const ddl = `
CREATE TABLE IF NOT EXISTS %[1]s (
    id          TEXT PRIMARY KEY,
    payload     BLOB NOT NULL,
    updated_at  INTEGER NOT NULL
);
`

// Config holds the configuration for the SQLite storage.
type Config struct {
	Table    string
	ReadOnly bool
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Storage implements core.Storage over a sqlx handle.
type Storage struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	table   string
	logger  *slog.Logger
	clock   func() time.Time

	mu       sync.RWMutex
	readOnly bool
	writes   int
}

// Open connects to the SQLite database at dsn (a file path or ":memory:").
func Open(dsn string, cfg Config) (*Storage, error) {
	db, err := sqlx.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", dsn, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY and keeps
	// ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	return New(db, cfg), nil
}

// New wraps an existing handle. Callers own the handle unless they call Close.
func New(db *sqlx.DB, cfg Config) *Storage {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Storage{
		db:       db,
		builder:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		table:    cfg.Table,
		logger:   cfg.Logger,
		clock:    cfg.Clock,
		readOnly: cfg.ReadOnly,
	}
}

// Initialize creates the table if needed.
func (s *Storage) Initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(ddl, s.table)); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	s.logger.Debug("sqlite storage initialized", "table", s.table)
	return nil
}

// Get implements core.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := core.ValidateKey(key); err != nil {
		return nil, err
	}
	query, args, err := s.builder.Select("payload").From(s.table).Where(sq.Eq{"id": key}).ToSql()
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := s.db.GetContext(ctx, &payload, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return payload, nil
}

// Set implements core.Storage with an upsert.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	if s.isReadOnly() {
		return core.ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}

	query, args, err := s.builder.Insert(s.table).
		Columns("id", "payload", "updated_at").
		Values(key, value, s.clock().UnixNano()).
		Suffix("ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.recordWrite()
	return nil
}

// Delete implements core.Deleter. A missing key is not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	if s.isReadOnly() {
		return core.ErrReadOnly
	}
	query, args, err := s.builder.Delete(s.table).Where(sq.Eq{"id": key}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	s.recordWrite()
	return nil
}

// Keys implements core.Lister.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	q := s.builder.Select("id").From(s.table).OrderBy("id")
	if prefix != "" {
		q = q.Where(sq.Like{"id": prefix + "%"})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	// LIKE treats % and _ in the prefix as wildcards.
	keys := ids[:0]
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			keys = append(keys, id)
		}
	}
	return keys, nil
}

// Close closes the underlying handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) isReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readOnly
}

func (s *Storage) recordWrite() {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Table    string `json:"table"`
	ReadOnly bool   `json:"read_only"`
	Writes   int    `json:"writes"`
	OpenConn int    `json:"open_connections"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StorageState{
		Table:    s.table,
		ReadOnly: s.readOnly,
		Writes:   s.writes,
		OpenConn: s.db.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "sqlite-storage"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ core.Initializer             = (*Storage)(nil)
	_ core.Deleter                 = (*Storage)(nil)
	_ core.Lister                  = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)
