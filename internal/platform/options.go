package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/notebox/pkg/core"
)

// options holds the internal configuration for a notebox App.
type options struct {
	storage core.Storage
	logger  *slog.Logger
	adapter string
	config  map[string]interface{}
}

// Option defines a functional option for configuring notebox.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

func parseOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit creates the store directory (and git repository when
// versioning) if it does not exist yet.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithVersioning enables or disables git versioning for the fs adapter.
// When unset, versioning follows whatever the directory already has.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.config["versioning"] = enabled
	}
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithMustExist ensures the store directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger shared by the stores and adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a custom storage. The adapter option is then ignored.
func WithStorage(s core.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite"
// or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir sets the hidden directory name used by the fs adapter.
// Defaults to ".notebox".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithWatcherErrorHandler registers a callback for errors raised inside the
// fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly enables read-only mode.
// In this mode:
// 1. Writes return ErrReadOnly at the storage level (the stores log and keep
// their in-memory state).
// 2. Initialization (mkdir, git init, schema) is skipped.
// 3. The dev sandbox is bypassed, so the real path is read.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or
// `go test`. By default (true) the store is redirected to a temporary
// directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}

// WithClock overrides time.Now for note timestamps, snapshots and calendar stamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.config["clock"] = clock
	}
}

// WithIDGenerator overrides the identifier generator (uuid v4 by default).
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.config["new_id"] = fn
	}
}

// WithLocation sets the time zone used for calendar day boundaries.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.config["location"] = loc
	}
}

func (o *options) bool(key string) bool {
	v, _ := o.config[key].(bool)
	return v
}

func (o *options) clock() func() time.Time {
	if fn, ok := o.config["clock"].(func() time.Time); ok && fn != nil {
		return fn
	}
	return time.Now
}
