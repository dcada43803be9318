// Package store implements the Note Store and the Theme Store on top of a
// core.Storage. Every mutation rewrites the whole persisted value.
package store

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Config holds the collaborators shared by both stores.
type Config struct {
	Logger      *slog.Logger
	Clock       func() time.Time // defaults to time.Now
	NewID       func() string    // defaults to uuid.NewString
	EventBuffer int              // per-subscriber buffer, 0 means core.DefaultEventBuffer
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	return c
}
