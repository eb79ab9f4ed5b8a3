package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermarkGetUninitialized(t *testing.T) {
	wm := NewWatermarkStore(filepath.Join(t.TempDir(), "seen_tx.json"))

	_, ok := wm.Get("0xabc")
	assert.False(t, ok)

	wm.Ensure("0xabc")
	_, ok = wm.Get("0xabc")
	assert.False(t, ok, "Ensure must not initialize the watermark")
}

func TestWatermarkSetAndGet(t *testing.T) {
	wm := NewWatermarkStore(filepath.Join(t.TempDir(), "seen_tx.json"))

	wm.Set("0xABC", "0xhash1")

	hash, ok := wm.Get("0xabc")
	require.True(t, ok)
	assert.Equal(t, "0xhash1", hash)

	wm.Set("0xabc", "0xhash2")
	hash, _ = wm.Get("0xAbC")
	assert.Equal(t, "0xhash2", hash)
}

func TestWatermarksSurviveReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen_tx.json")

	wm := NewWatermarkStore(path)
	wm.Set("0xaaa", "0xhash1")
	wm.Ensure("0xbbb")

	reloaded := NewWatermarkStore(path)

	hash, ok := reloaded.Get("0xaaa")
	require.True(t, ok)
	assert.Equal(t, "0xhash1", hash)

	_, ok = reloaded.Get("0xbbb")
	assert.False(t, ok)
}

func TestCorruptWatermarkFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen_tx.json")
	require.NoError(t, os.WriteFile(path, []byte("]["), 0644))

	wm := NewWatermarkStore(path)
	_, ok := wm.Get("0xabc")
	assert.False(t, ok)

	wm.Set("0xabc", "0xhash1")
	hash, ok := wm.Get("0xabc")
	require.True(t, ok)
	assert.Equal(t, "0xhash1", hash)
}
