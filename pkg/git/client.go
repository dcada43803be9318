// Package git shells out to the git binary to version a notebox directory.
package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockFile is created in the working directory while a write is in flight.
const DefaultLockFile = ".notebox.lock"

// ErrLockTimeout is returned when the lock file could not be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for git lock")

// Client wraps git command execution with a file-based lock shared across processes.
type Client struct {
	WorkDir     string
	Logger      *slog.Logger
	LockTimeout time.Duration // zero waits forever

	lockPath string
}

// NewClient creates a git client for workDir. An empty lockFile uses DefaultLockFile.
func NewClient(workDir, lockFile string, logger *slog.Logger) *Client {
	if lockFile == "" {
		lockFile = DefaultLockFile
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: lockFile,
	}
}

// IsInstalled reports whether a git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether WorkDir holds a .git directory.
func (c *Client) IsRepo() bool {
	info, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil && info.IsDir()
}

// Lock acquires the lock file, polling until it is free or LockTimeout expires.
func (c *Client) Lock() (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	var deadline time.Time
	if c.LockTimeout > 0 {
		deadline = time.Now().Add(c.LockTimeout)
	}

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run executes a raw git command in the working directory.
// It does NOT take the lock; callers guard writes with Client.Lock.
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// Init initializes a repository. Re-running it is harmless.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add stages files.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(args...)
	return err
}

// Rm removes files from the working tree and the index.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-f", "--"}, files...)
	_, err := c.Run(args...)
	return err
}

// Commit records staged changes. Nothing staged is not an error.
func (c *Client) Commit(msg string) error {
	status, err := c.Run("diff", "--cached", "--name-only")
	if err == nil && status == "" {
		return nil
	}
	args := []string{"commit", "-m", msg}
	if _, err := c.Run("config", "user.email"); err != nil {
		// No identity configured (fresh CI boxes, containers).
		args = append([]string{"-c", "user.name=notebox", "-c", "user.email=notebox@localhost"}, args...)
	}
	_, err = c.Run(args...)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// Log returns the last n commit subjects, newest first.
func (c *Client) Log(n int) ([]string, error) {
	out, err := c.Run("log", fmt.Sprintf("-%d", n), "--pretty=format:%s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}
