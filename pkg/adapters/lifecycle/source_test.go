package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nblifecycle "github.com/aretw0/notebox/pkg/adapters/lifecycle"
	"github.com/aretw0/notebox/pkg/core"
)

func TestSource_ForwardsStoreEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := nblifecycle.NewSource(in)
	require.NoError(t, src.Start(ctx))

	in <- core.Event{Type: core.EventBucketAdded, BucketID: "b1"}

	select {
	case e := <-src.Events():
		assert.Equal(t, "BUCKET_ADDED b1", e.String())
		got, ok := e.(core.Event)
		require.True(t, ok)
		assert.Equal(t, "b1", got.BucketID)
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	close(in)
	assertClosed(t, src.Events())
}

func TestStorageSource_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	in := make(chan core.StorageEvent)
	src := nblifecycle.NewStorageSource(in)
	require.NoError(t, src.Start(ctx))

	go func() { in <- core.StorageEvent{Type: core.StorageSet, Key: "buckets"} }()
	select {
	case e := <-src.Events():
		assert.Equal(t, "SET buckets", e.String())
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}

	cancel()
	assertClosed(t, src.Events())
}

func assertClosed[E any](t *testing.T, ch <-chan E) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
