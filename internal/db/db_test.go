package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inflow/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := OpenInflowDB(filepath.Join(t.TempDir(), "nested", "inflow.db"))
	require.NoError(t, err)
	s := NewStore(conn)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEmptyStoreReturnsDefaults(t *testing.T) {
	s := openTestStore(t)
	got, err := s.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestSaveThenLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := models.DefaultSettings()
	want.Provider = models.ProviderCustom
	want.BaseURL = "https://host/v1/"
	want.APIKeys[models.ProviderCustom] = "sk-custom"
	want.APIModels[models.ProviderCustom] = "llama-3"
	want.PanelPosition = models.PositionTopRight
	want.InvocationMethod = models.InvokeTyping

	require.NoError(t, s.SaveSettings(ctx, want))
	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a second save overwrites every key
	want.Provider = models.ProviderOpenAI
	delete(want.APIKeys, models.ProviderCustom)
	require.NoError(t, s.SaveSettings(ctx, want))
	got, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderOpenAI, got.Provider)
	assert.Empty(t, got.APIKeys)
}

func TestUnreadableValuesFallBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, SetValues(ctx, s.db, map[string]string{
		models.KeyProvider:      `"gemini"`,
		models.KeyAPIKeys:       `not json`,
		models.KeyPanelPosition: `""`,
		"unrelated":             `"x"`,
	}, 1))

	got, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGemini, got.Provider)
	assert.Empty(t, got.APIKeys)
	assert.Equal(t, models.PositionBottomRight, got.PanelPosition)
}

func TestMemoryStore(t *testing.T) {
	initial := models.DefaultSettings()
	initial.APIKeys[models.ProviderOpenRouter] = "k"
	m := NewMemoryStore(initial)
	ctx := context.Background()

	got, err := m.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", got.APIKey())

	got.APIKeys[models.ProviderOpenRouter] = "changed"
	again, _ := m.LoadSettings(ctx)
	assert.Equal(t, "k", again.APIKey(), "loaded settings must not alias the store")

	require.NoError(t, m.SaveSettings(ctx, got))
	assert.Equal(t, 1, m.SaveCount())
}
