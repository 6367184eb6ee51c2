package filesystem_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*filesystem.Store, string) {
	t.Helper()
	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })
	return filesystem.NewStore(root), dir
}

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestStore_Dirs(t *testing.T) {
	ctx := context.Background()
	store, dir := newStore(t)

	exists, err := store.DirExists(ctx, "files")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.MakeDir(ctx, "files"))
	require.NoError(t, store.MakeDir(ctx, "files"), "existing dir is fine")

	exists, err = store.DirExists(ctx, "files")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain"), []byte("x"), 0o644))
	_, err = store.DirExists(ctx, "plain")
	assert.ErrorContains(t, err, "not a directory")
}

func TestStore_Write(t *testing.T) {
	ctx := context.Background()

	t.Run("writes content and etag", func(t *testing.T) {
		store, dir := newStore(t)

		res, err := store.Write(ctx, "files/ab/object", strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, int64(11), res.BytesWritten)
		assert.Equal(t, sha("hello world"), res.Etag)

		got, err := os.ReadFile(filepath.Join(dir, "files", "ab", "object"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", string(got))
	})

	t.Run("overwrite replaces content", func(t *testing.T) {
		store, dir := newStore(t)

		_, err := store.Write(ctx, "obj", strings.NewReader("first"))
		require.NoError(t, err)
		_, err = store.Write(ctx, "obj", strings.NewReader("second"))
		require.NoError(t, err)

		got, err := os.ReadFile(filepath.Join(dir, "obj"))
		require.NoError(t, err)
		assert.Equal(t, "second", string(got))
	})

	t.Run("empty content", func(t *testing.T) {
		store, _ := newStore(t)

		res, err := store.Write(ctx, "empty", strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.BytesWritten)
		assert.Equal(t, sha(""), res.Etag)
	})

	t.Run("failed copy leaves no temp file", func(t *testing.T) {
		store, dir := newStore(t)

		_, err := store.Write(ctx, "obj", io.MultiReader(strings.NewReader("partial"), errReader{}))
		assert.Error(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store, _ := newStore(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Write(cancelled, "obj", strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("escape rejected by root", func(t *testing.T) {
		store, _ := newStore(t)

		_, err := store.Write(ctx, "../escape", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("concurrent writers leave one complete file", func(t *testing.T) {
		store, dir := newStore(t)

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Go(func() {
				_, err := store.Write(ctx, "race", strings.NewReader(fmt.Sprintf("writer-%d", i)))
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		got, err := os.ReadFile(filepath.Join(dir, "race"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(got), "writer-"))
		assert.Len(t, got, len("writer-0"))
	})
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	_, err := store.Write(ctx, "a/b", strings.NewReader("payload"))
	require.NoError(t, err)

	f, err := store.Get(ctx, "a/b")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, filegate.ErrNotFound)
}

func TestStore_Stage(t *testing.T) {
	ctx := context.Background()

	t.Run("commit places the object", func(t *testing.T) {
		store, dir := newStore(t)

		staged, err := store.Stage(ctx, strings.NewReader("staged"))
		require.NoError(t, err)
		assert.Equal(t, int64(6), staged.Result.BytesWritten)
		assert.Equal(t, sha("staged"), staged.Result.Etag)

		_, err = store.Get(ctx, "obj")
		assert.ErrorIs(t, err, filegate.ErrNotFound, "nothing visible before commit")

		require.NoError(t, staged.Commit("obj"))

		got, err := os.ReadFile(filepath.Join(dir, "obj"))
		require.NoError(t, err)
		assert.Equal(t, "staged", string(got))
	})

	t.Run("discard leaves nothing behind", func(t *testing.T) {
		store, dir := newStore(t)

		staged, err := store.Stage(ctx, strings.NewReader("dropped"))
		require.NoError(t, err)
		staged.Discard()

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
