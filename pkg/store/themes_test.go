package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notebox/pkg/adapters/memory"
	"github.com/aretw0/notebox/pkg/core"
	"github.com/aretw0/notebox/pkg/store"
)

func TestThemes_DefaultWhenEmpty(t *testing.T) {
	s := store.NewThemes(context.Background(), memory.New(), store.Config{})
	assert.Equal(t, core.DefaultTheme, s.Current())
}

func TestThemes_ApplyAndReload(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()

	s := store.NewThemes(ctx, storage, store.Config{})
	s.ApplyTheme(ctx, core.DarkTheme)
	assert.Equal(t, core.DarkTheme.ID, s.Current().ID)

	restarted := store.NewThemes(ctx, storage, store.Config{})
	assert.Equal(t, core.DarkTheme.ID, restarted.Current().ID)
	if diff := cmp.Diff(core.DarkTheme, restarted.Current()); diff != "" {
		t.Errorf("theme mismatch after restart (-want +got):\n%s", diff)
	}
}

func TestThemes_CustomThemeSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()

	custom := core.AppTheme{
		ID:                 "custom",
		Name:               "Sepia",
		Primary:            core.RGB(0x70, 0x42, 0x14),
		Secondary:          core.RGB(0xA0, 0x80, 0x60),
		Background:         core.RGB(0xF4, 0xEC, 0xD8),
		NoteCardBackground: core.RGB(0xFF, 0xF8, 0xE7),
		Border:             core.ARGB(0x80, 0x70, 0x42, 0x14),
		Shadow:             core.ARGB(0x1A, 0, 0, 0),
	}
	store.NewThemes(ctx, storage, store.Config{}).ApplyTheme(ctx, custom)

	got := store.NewThemes(ctx, storage, store.Config{}).Current()
	assert.Empty(t, cmp.Diff(custom, got))
}

func TestThemes_CorruptedFallsBack(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	require.NoError(t, storage.Set(ctx, core.KeyTheme, []byte(`{"primaryColor":"not-a-color"}`)))

	s := store.NewThemes(ctx, storage, store.Config{})
	assert.Equal(t, core.DefaultTheme, s.Current())
}

func TestThemes_ApplyBuiltin(t *testing.T) {
	ctx := context.Background()
	s := store.NewThemes(ctx, memory.New(), store.Config{})

	theme, ok := s.ApplyBuiltin(ctx, "Light")
	require.True(t, ok)
	assert.Equal(t, core.LightTheme.ID, theme.ID)
	assert.Equal(t, core.LightTheme.ID, s.Current().ID)

	_, ok = s.ApplyBuiltin(ctx, "Neon")
	assert.False(t, ok)
	assert.Equal(t, core.LightTheme.ID, s.Current().ID)
}

func TestThemes_WriteFailureStillApplies(t *testing.T) {
	ctx := context.Background()
	storage := memory.New()
	s := store.NewThemes(ctx, storage, store.Config{})

	storage.FailWrites = errors.New("read-only volume")
	s.ApplyTheme(ctx, core.DarkTheme)
	assert.Equal(t, core.DarkTheme.ID, s.Current().ID)

	_, err := storage.Get(ctx, core.KeyTheme)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.EqualError(t, s.LastError(), "read-only volume")
	assert.Equal(t, "read-only volume", s.State().(store.ThemesState).LastError)

	storage.FailWrites = nil
	s.ApplyTheme(ctx, core.LightTheme)
	assert.NoError(t, s.LastError())
}

func TestThemes_ReloadAndEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage := memory.New()

	s := store.NewThemes(ctx, storage, store.Config{})
	events := s.Subscribe(ctx)

	store.NewThemes(ctx, storage, store.Config{}).ApplyTheme(ctx, core.DarkTheme)
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, core.DarkTheme.ID, s.Current().ID)

	require.NoError(t, storage.Delete(ctx, core.KeyTheme))
	require.NoError(t, s.Reload(ctx))
	assert.Equal(t, core.DefaultTheme.ID, s.Current().ID)

	s.ApplyTheme(ctx, core.LightTheme)

	require.Len(t, events, 3)
	assert.Equal(t, core.EventReloaded, (<-events).Type)
	assert.Equal(t, core.EventReloaded, (<-events).Type)
	e := <-events
	assert.Equal(t, core.EventThemeApplied, e.Type)
	assert.Equal(t, core.LightTheme.ID, e.ThemeID)

	state := s.State().(store.ThemesState)
	assert.Equal(t, "Light", state.ThemeName)
	assert.Equal(t, 1, state.Subscribers)
}
