package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	ctx := context.Background()

	data := []byte("hello world, this is a test blob for slichash")
	require.NoError(t, store.Put(ctx, "input-001.png", data))
	require.NoError(t, store.Put(ctx, "input-002.png", []byte("x")))
	require.NoError(t, store.Put(ctx, "nested/query-001.png", []byte("q")))

	_, err := os.Stat(filepath.Join(tmpDir, "nested", "query-001.png"))
	require.NoError(t, err)

	t.Run("ReadAt", func(t *testing.T) {
		blob, err := store.Open(ctx, "input-001.png")
		require.NoError(t, err)
		defer blob.Close()

		require.Equal(t, int64(len(data)), blob.Size())

		buf := make([]byte, 5)
		n, err := blob.ReadAt(ctx, buf, 6)
		require.NoError(t, err)
		require.Equal(t, 5, n)
		require.Equal(t, "world", string(buf))
	})

	t.Run("ReadRange", func(t *testing.T) {
		blob, err := store.Open(ctx, "input-001.png")
		require.NoError(t, err)
		defer blob.Close()

		r, err := blob.ReadRange(ctx, 13, 4)
		require.NoError(t, err)
		content, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, "this", string(content))

		r, err = blob.ReadRange(ctx, int64(len(data))-4, 100)
		require.NoError(t, err)
		content, err = io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "hash", string(content))

		_, err = blob.ReadRange(ctx, int64(len(data)), 1)
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("List", func(t *testing.T) {
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"input-001.png", "input-002.png", "nested/query-001.png"}, names)

		names, err = store.List(ctx, "input")
		require.NoError(t, err)
		assert.Equal(t, []string{"input-001.png", "input-002.png"}, names)

		names, err = store.List(ctx, "nested/")
		require.NoError(t, err)
		assert.Equal(t, []string{"nested/query-001.png"}, names)
	})

	t.Run("ReadAll", func(t *testing.T) {
		got, err := ReadAll(ctx, store, "nested/query-001.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("q"), got)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "missing.png")
		require.True(t, IsNotFound(err))

		_, err = store.Open(ctx, "nested")
		require.True(t, IsNotFound(err))
	})
}

func TestLocalStore_MissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
