package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/git"
)

// DefaultSystemDir holds notebox's own bookkeeping inside the root directory.
const DefaultSystemDir = ".notebox"

// Repository implements core.Storage with one file per key below Path.
// With versioning enabled every write becomes a git commit.
type Repository struct {
	Path   string
	git    *git.Client
	config Config

	writeMu sync.Mutex // serializes write + commit

	mu        sync.RWMutex
	readOnly  bool
	watchers  int
	lastWrite *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	AutoInit     bool // git init when versioning is on and no repository exists
	Versioning   bool
	MustExist    bool
	ReadOnly     bool
	SystemDir    string // defaults to DefaultSystemDir
	Logger       *slog.Logger
	ErrorHandler func(error)  // receives watcher failures
	Debounce     time.Duration // coalesces bursts of watch events per key
}

// NewRepository creates a new filesystem-backed storage.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{
		Path:     config.Path,
		git:      git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:   config,
		readOnly: config.ReadOnly,
	}
}

// Initialize creates the root and system directories and, when versioning,
// the git repository.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", r.Path)
		}
	} else if !r.readOnly {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	if r.readOnly {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(r.Path, r.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	if !r.config.Versioning {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}

	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		msg := git.FormatCommitMessage(git.CommitTypeChore, "", fmt.Sprintf("configure %s ignore", r.config.SystemDir), "")
		if err := r.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}

	r.config.Logger.Debug("store initialized", "path", r.Path, "versioning", r.config.Versioning)
	return nil
}

func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	entries := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Get reads the file stored under key.
func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := r.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes value atomically and, with versioning, commits it.
func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	if r.isReadOnly() {
		return core.ErrReadOnly
	}
	fullPath, err := r.resolve(key)
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := writeFileAtomic(fullPath, value, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	r.recordWrite()

	if !r.config.Versioning {
		return nil
	}
	return r.commit(ctx, func() error { return r.git.Add(key) }, "update "+key)
}

// Delete removes the file stored under key. A missing key is not an error.
func (r *Repository) Delete(ctx context.Context, key string) error {
	if r.isReadOnly() {
		return core.ErrReadOnly
	}
	fullPath, err := r.resolve(key)
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}

	if !r.config.Versioning || !r.tracked(key) {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
		r.recordWrite()
		return nil
	}

	r.recordWrite()
	return r.commit(ctx, func() error { return r.git.Rm(key) }, "delete "+key)
}

func (r *Repository) commit(ctx context.Context, stage func() error, subject string) error {
	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := stage(); err != nil {
		return fmt.Errorf("failed to stage change: %w", err)
	}

	msg := git.FormatCommitMessage(git.CommitTypeChore, "store", subject, "")
	if reason, ok := ctx.Value(core.ChangeReasonKey).(string); ok && reason != "" {
		msg = git.AppendFooter(reason)
	}
	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

func (r *Repository) tracked(key string) bool {
	_, err := r.git.Run("ls-files", "--error-unmatch", "--", key)
	return err == nil
}

// Keys lists stored keys with the given prefix, sorted.
// The system directory, .git and in-flight temp files are skipped.
func (r *Repository) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == r.Path {
				return filepath.SkipDir
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != r.Path && r.isSystemName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if r.isSystemName(d.Name()) || strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		rel, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// SetReadOnly toggles write protection at runtime.
func (r *Repository) SetReadOnly(readOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readOnly = readOnly
}

func (r *Repository) isReadOnly() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.readOnly
}

// resolve maps a key to its file, refusing keys that would reach
// into .git or the system directory.
func (r *Repository) resolve(key string) (string, error) {
	if err := core.ValidateKey(key); err != nil {
		return "", err
	}
	first := strings.SplitN(key, "/", 2)[0]
	if r.isSystemName(first) {
		return "", fmt.Errorf("%w: %q is reserved", core.ErrInvalidKey, key)
	}
	return filepath.Join(r.Path, filepath.FromSlash(key)), nil
}

func (r *Repository) isSystemName(name string) bool {
	return name == ".git" || name == ".gitignore" || name == r.config.SystemDir || name == r.config.SystemDir+".lock"
}

// IsGitInstalled reports whether versioning can be enabled on this host.
func IsGitInstalled() bool {
	return git.IsInstalled()
}

var (
	_ core.Storage     = (*Repository)(nil)
	_ core.Initializer = (*Repository)(nil)
	_ core.Deleter     = (*Repository)(nil)
	_ core.Lister      = (*Repository)(nil)
	_ core.Watchable   = (*Repository)(nil)
)
