// Package filesystem keeps object bytes in a directory tree for the local
// backend. Every path is resolved through an os.Root, so names cannot escape
// the data directory.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/sagarc03/filegate"
)

// Store reads and writes files below a single root directory.
type Store struct {
	root *os.Root
}

func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// DirExists reports whether dir is a directory under the root. A regular file
// at dir is an error.
func (s *Store) DirExists(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := s.root.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat %s: %w", dir, err)
	case !info.IsDir():
		return false, fmt.Errorf("stat %s: not a directory", dir)
	}
	return true, nil
}

func (s *Store) MakeDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// Get opens name for reading, or returns filegate.ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.root.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, filegate.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Write replaces name with content. The bytes are first spooled to a hidden
// temp file in the root, then renamed into place, so a reader never sees a
// partial object. With concurrent writers the last rename wins. The returned
// etag is the hex SHA-256 of the content.
func (s *Store) Write(ctx context.Context, name string, content io.Reader) (filegate.SaveResult, error) {
	staged, err := s.Stage(ctx, content)
	if err != nil {
		return filegate.SaveResult{}, fmt.Errorf("write %s: %w", name, err)
	}

	if err := staged.Commit(name); err != nil {
		staged.Discard()
		return filegate.SaveResult{}, fmt.Errorf("write %s: %w", name, err)
	}
	return staged.Result, nil
}

// Staged is content spooled to a temp file that has not been placed yet.
// Exactly one of Commit or Discard must follow.
type Staged struct {
	store  *Store
	tmp    string
	Result filegate.SaveResult
}

// Stage spools content to a temp file in the root and syncs it, without
// touching any object. The copy is the slow part of a write, so callers that
// need to order commits can stage outside their lock.
func (s *Store) Stage(ctx context.Context, content io.Reader) (*Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp := ".upload-" + uuid.NewString()
	sum := sha256.New()

	n, err := s.spool(ctx, tmp, content, sum)
	if err != nil {
		s.discard(tmp)
		return nil, err
	}

	return &Staged{
		store:  s,
		tmp:    tmp,
		Result: filegate.SaveResult{BytesWritten: n, Etag: hex.EncodeToString(sum.Sum(nil))},
	}, nil
}

// Commit renames the staged file to name, replacing what was there.
func (st *Staged) Commit(name string) error {
	return st.store.commit(st.tmp, name)
}

// Discard removes the temp file. It is safe after a failed Commit.
func (st *Staged) Discard() {
	st.store.discard(st.tmp)
}

// spool copies content into tmp, feeding sum on the way, and syncs it to disk.
func (s *Store) spool(ctx context.Context, tmp string, content io.Reader, sum hash.Hash) (int64, error) {
	f, err := s.root.Create(tmp)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(io.MultiWriter(f, sum), contextReader{ctx: ctx, r: content})
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}

func (s *Store) commit(tmp, name string) error {
	if dir := path.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return s.root.Rename(tmp, name)
}

func (s *Store) discard(tmp string) {
	if err := s.root.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not remove temp file", "file", tmp, "error", err)
	}
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
