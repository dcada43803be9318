package notebox

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/notebox/internal/platform"
	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/git"
)

// --- Types ---

// App is the composition root: storage, Note Store, Theme Store, calendar
// and backups wired together.
type App = platform.App

// --- Configuration ---

// Option defines a functional option for configuring notebox.
type Option = platform.Option

// WithAutoInit creates the store directory on first use.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables git versioning (fs adapter).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the store directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the stores and adapters.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage injects a custom storage.
func WithStorage(s core.Storage) Option {
	return platform.WithStorage(s)
}

// WithAdapter selects the storage adapter by name ("fs", "sqlite", "memory").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory name (e.g. ".notebox").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the per-subscriber event buffer size.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithReadOnly opens the storage without writing to it.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives errors raised inside the fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return platform.WithClock(clock)
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(fn func() string) Option {
	return platform.WithIDGenerator(fn)
}

// WithLocation sets the time zone for calendar day boundaries.
func WithLocation(loc *time.Location) Option {
	return platform.WithLocation(loc)
}

// --- Factory ---

// New opens the store at path and loads both stores.
func New(ctx context.Context, path string, opts ...Option) (*App, error) {
	return platform.New(ctx, path, opts...)
}

// Init opens and initializes the storage only.
func Init(path string, opts ...Option) (core.Storage, error) {
	return platform.Init(path, opts...)
}

// --- Safety & Utils ---

// ResolveStorePath determines the actual path for the store based on safety rules.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot looks upwards for a store root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Change reasons ---

const (
	CommitTypeFeat     = git.CommitTypeFeat
	CommitTypeFix      = git.CommitTypeFix
	CommitTypeDocs     = git.CommitTypeDocs
	CommitTypeRefactor = git.CommitTypeRefactor
	CommitTypeChore    = git.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return git.FormatCommitMessage(ctype, scope, subject, body)
}

// WithChangeReason attaches a commit message to the writes made with ctx.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return core.WithChangeReason(ctx, reason)
}
