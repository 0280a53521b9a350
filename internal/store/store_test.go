package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]string{"apiKey": "K"}))

	got, err := s.Get(ctx, []string{"apiKey"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"apiKey": "K"}, got)
}

func TestMemoryMissingKeysResolveEmpty(t *testing.T) {
	s := NewMemory(map[string]string{"mode": "image"})

	got, err := s.Get(context.Background(), []string{"mode", "url", "customPromptmcq"})
	require.NoError(t, err)
	assert.Equal(t, "image", got["mode"])
	assert.Contains(t, got, "url")
	assert.Equal(t, "", got["url"])
	assert.Equal(t, "", got["customPromptmcq"])
}

func TestMemoryLastWriteWins(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, map[string]string{"status": "on"}))
	require.NoError(t, s.Set(ctx, map[string]string{"status": "off"}))

	got, err := s.Get(ctx, []string{"status"})
	require.NoError(t, err)
	assert.Equal(t, "off", got["status"])
}

func TestMemorySeedIsCopied(t *testing.T) {
	seed := map[string]string{"url": "https://a.example"}
	s := NewMemory(seed)
	seed["url"] = "https://b.example"

	got, err := s.Get(context.Background(), []string{"url"})
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", got["url"])
}

func TestMemoryConcurrentAccess(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, map[string]string{"mode": "mcq"})
		}()
		go func() {
			defer wg.Done()
			_, _ = s.Get(ctx, []string{"mode"})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, []string{"mode"})
	require.NoError(t, err)
	assert.Equal(t, "mcq", got["mode"])
}

func TestMemoryCanceledContext(t *testing.T) {
	s := NewMemory(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, []string{"mode"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Set(ctx, map[string]string{"mode": "mcq"}), context.Canceled)
}
