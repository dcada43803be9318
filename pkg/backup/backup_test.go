package backup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/notebox/pkg/adapters/memory"
	"github.com/aretw0/notebox/pkg/backup"
	"github.com/aretw0/notebox/pkg/core"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// steppingClock advances one minute per call.
func steppingClock() func() time.Time {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newManager(t *testing.T) (*backup.Manager, *memory.Storage) {
	t.Helper()
	storage := memory.New()
	m, err := backup.New(storage, backup.Config{Clock: steppingClock()})
	require.NoError(t, err)
	return m, storage
}

func TestSnapshotAndRestore(t *testing.T) {
	ctx := context.Background()
	m, storage := newManager(t)

	_, err := m.Snapshot(ctx)
	require.ErrorIs(t, err, backup.ErrNothingToBackup)

	require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte(`[{"id":"v1"}]`)))
	require.NoError(t, storage.Set(ctx, core.KeyTheme, []byte(`{"id":"dark"}`)))

	// The empty attempt above already consumed the 09:01 tick.
	snap, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20261019T090200.000000000Z", snap.ID)
	assert.Equal(t, []string{core.KeyBuckets, core.KeyTheme}, snap.Keys)

	backedUp, err := storage.Get(ctx, "backups/"+snap.ID+"/buckets")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"v1"}]`, string(backedUp))

	// Diverge, including a key the snapshot never had.
	require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte(`[{"id":"v2"}]`)))
	require.NoError(t, storage.Set(ctx, core.KeyCalendar, []byte("BEGIN:VCALENDAR")))

	restored, err := m.Restore(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, restored.ID)

	live, err := storage.Get(ctx, core.KeyBuckets)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"v1"}]`, string(live))

	_, err = storage.Get(ctx, core.KeyCalendar)
	assert.ErrorIs(t, err, core.ErrNotFound, "keys absent from the snapshot are cleared")
}

func TestRestoreUnknown(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.Restore(context.Background(), "20000101T000000.000000000Z")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListAndPrune(t *testing.T) {
	ctx := context.Background()
	m, storage := newManager(t)
	require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte(`[]`)))
	require.NoError(t, storage.Set(ctx, "backups/not-a-snapshot/buckets", []byte(`[]`)))

	var ids []string
	for i := 0; i < 4; i++ {
		snap, err := m.Snapshot(ctx)
		require.NoError(t, err)
		ids = append(ids, snap.ID)
	}

	snaps, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	assert.Equal(t, ids[3], snaps[0].ID, "newest first")
	assert.Equal(t, ids[0], snaps[3].ID)

	removed, err := m.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[1], ids[0]}, removed)

	snaps, err = m.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, ids[3], snaps[0].ID)
	assert.Equal(t, ids[2], snaps[1].ID)

	removed, err = m.Prune(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = storage.Get(ctx, "backups/not-a-snapshot/buckets")
	assert.NoError(t, err, "foreign entries are left alone")
}

// getOnly has no Keys method.
type getOnly struct{ core.Storage }

func TestNew_RequiresLister(t *testing.T) {
	_, err := backup.New(getOnly{}, backup.Config{})
	assert.ErrorIs(t, err, backup.ErrUnsupported)
}

func TestScheduler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m, storage := newManager(t)
	require.NoError(t, storage.Set(ctx, core.KeyBuckets, []byte(`[]`)))

	s, err := backup.NewScheduler(m, "@every 1s", 1, nil)
	require.NoError(t, err)

	ran := make(chan backup.Snapshot, 4)
	s.OnSnapshot = func(snap backup.Snapshot, err error) {
		if err == nil {
			ran <- snap
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case snap := <-ran:
		assert.NotEmpty(t, snap.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled snapshot did not run")
	}

	cancel()
	require.NoError(t, <-done)

	snaps, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, snaps, 1, "pruned down to keep=1")
}

func TestScheduler_InvalidSpec(t *testing.T) {
	m, _ := newManager(t)
	_, err := backup.NewScheduler(m, "every tuesday", 0, nil)
	assert.Error(t, err)
}
