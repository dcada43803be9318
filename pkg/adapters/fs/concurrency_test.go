package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupVersionedRepo creates a git-backed repository for concurrency tests.
func setupVersionedRepo(t *testing.T) *Repository {
	t.Helper()
	if !IsGitInstalled() {
		t.Skip("git not installed")
	}

	repo := NewRepository(Config{
		Path:       t.TempDir(),
		AutoInit:   true,
		Versioning: true,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, repo.Initialize(context.Background()))
	return repo
}

// TestSetWaitsForGitLock verifies that a versioned write respects a lock held
// by another process.
func TestSetWaitsForGitLock(t *testing.T) {
	repo := setupVersionedRepo(t)
	ctx := context.Background()

	lockAcquired := make(chan struct{})
	go func() {
		unlock, err := repo.git.Lock()
		if err != nil {
			t.Errorf("manual lock failed: %v", err)
			close(lockAcquired)
			return
		}
		defer unlock()

		close(lockAcquired)
		time.Sleep(300 * time.Millisecond)
	}()
	<-lockAcquired

	start := time.Now()
	require.NoError(t, repo.Set(ctx, "buckets", []byte("[]")))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond, "Set returned before the lock was released")
}

func TestConcurrentSets(t *testing.T) {
	repo := setupVersionedRepo(t)
	ctx := context.Background()

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Set(ctx, fmt.Sprintf("backups/%d/buckets", i), []byte("[]"))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	keys, err := repo.Keys(ctx, "backups/")
	require.NoError(t, err)
	assert.Len(t, keys, writers)

	status, err := repo.git.Status()
	require.NoError(t, err)
	assert.Empty(t, status)
}
