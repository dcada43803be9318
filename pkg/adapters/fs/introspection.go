package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path       string     `json:"path"`
	SystemDir  string     `json:"system_dir"`
	Versioning bool       `json:"versioning"`
	ReadOnly   bool       `json:"read_only"`
	Watchers   int        `json:"watchers"`
	LastWrite  *time.Time `json:"last_write,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:       r.Path,
		SystemDir:  r.config.SystemDir,
		Versioning: r.config.Versioning,
		ReadOnly:   r.readOnly,
		Watchers:   r.watchers,
		LastWrite:  r.lastWrite,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-storage"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers += delta
}

func (r *Repository) recordWrite() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastWrite = &now
}
