package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	unlock, err := client.Lock()
	require.NoError(t, err)

	lockPath := filepath.Join(tmpDir, DefaultLockFile)
	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file not created")

	unlock()

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file not removed after unlock")
}

func TestClient_LockTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	holder := NewClient(tmpDir, "", nil)
	unlock, err := holder.Lock()
	require.NoError(t, err)
	defer unlock()

	waiter := NewClient(tmpDir, "", nil)
	waiter.LockTimeout = 30 * time.Millisecond
	_, err = waiter.Lock()
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestClient_InitAndCommit(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	require.NoError(t, client.Init())
	assert.True(t, client.IsRepo())

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "buckets"), []byte("[]"), 0644))
	require.NoError(t, client.Add("buckets"))
	require.NoError(t, client.Commit(FormatCommitMessage(CommitTypeChore, "store", "update buckets", "")))

	// Nothing staged: no-op.
	require.NoError(t, client.Commit("empty"))

	subjects, err := client.Log(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"chore(store): update buckets"}, subjects)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Empty(t, status)
}
