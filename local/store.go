// Package local implements filegate.ObjectStore on a directory tree with a
// SQL metadata index. Download URLs are signed with stowry native signing and
// served by the gateway itself.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/filesystem"
)

const defaultPageSize = 1000

// Config holds the settings for a local Store.
type Config struct {
	// BaseURL is the public prefix signed URLs are built on, for example
	// "http://localhost:3000/objects".
	BaseURL   string
	AccessKey string
	SecretKey string
	PageSize  int
}

// Store keeps object bytes in files and their attributes in repo.
type Store struct {
	locks    nameLocks
	files    *filesystem.Store
	repo     filegate.MetaDataRepo
	signer   *Signer
	baseURL  *url.URL
	pageSize int
}

func NewStore(files *filesystem.Store, repo filegate.MetaDataRepo, cfg Config) (*Store, error) {
	if files == nil || repo == nil {
		return nil, errors.New("new local store: files and repo are required")
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("new local store: secret key is required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("new local store: invalid base url %q", cfg.BaseURL)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Store{
		files:    files,
		repo:     repo,
		signer:   NewSigner(cfg.AccessKey, cfg.SecretKey),
		baseURL:  base,
		pageSize: pageSize,
	}, nil
}

// validBucket keeps bucket names to a single directory level.
func validBucket(bucket string) error {
	if bucket == "" || bucket == "." || bucket == ".." || strings.ContainsAny(bucket, `/\`) {
		return fmt.Errorf("invalid bucket name %q: %w", bucket, filegate.ErrInvalidInput)
	}
	return nil
}

// blobPath maps an object name onto a fixed-shape file path, so any name the
// gateway accepts is storable regardless of filesystem rules.
func blobPath(bucket, name string) string {
	sum := sha256.Sum256([]byte(name))
	key := hex.EncodeToString(sum[:])
	return path.Join(bucket, key[:2], key)
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	if err := validBucket(bucket); err != nil {
		return false, err
	}

	exists, err := s.files.DirExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("bucket exists: %w", err)
	}
	return exists, nil
}

// MakeBucket creates the bucket directory. region is ignored.
func (s *Store) MakeBucket(ctx context.Context, bucket, _ string) error {
	if err := validBucket(bucket); err != nil {
		return err
	}

	if err := s.files.MakeDir(ctx, bucket); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

func (s *Store) requireBucket(ctx context.Context, bucket string) error {
	exists, err := s.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist: %w", bucket, filegate.ErrUnavailable)
	}
	return nil
}

func (s *Store) PutObject(ctx context.Context, bucket string, obj filegate.PutObject, content io.Reader) (filegate.Object, error) {
	if err := s.requireBucket(ctx, bucket); err != nil {
		return filegate.Object{}, fmt.Errorf("put object: %w", err)
	}

	staged, err := s.files.Stage(ctx, content)
	if err != nil {
		return filegate.Object{}, fmt.Errorf("put object: %w", err)
	}

	m, err := s.commit(ctx, bucket, obj, staged)
	if err != nil {
		return filegate.Object{}, fmt.Errorf("put object: %w", err)
	}

	return m.Object(), nil
}

// commit swaps the staged bytes into place and records their metadata as one
// step per name, so the file on disk and the metadata row always describe the
// same write.
func (s *Store) commit(ctx context.Context, bucket string, obj filegate.PutObject, staged *filesystem.Staged) (filegate.MetaData, error) {
	mu := s.locks.lockFor(bucket, obj.Name)
	mu.Lock()
	defer mu.Unlock()

	if err := staged.Commit(blobPath(bucket, obj.Name)); err != nil {
		staged.Discard()
		return filegate.MetaData{}, err
	}

	return s.repo.Upsert(ctx, filegate.ObjectEntry{
		Bucket:      bucket,
		Name:        obj.Name,
		Size:        staged.Result.BytesWritten,
		ETag:        staged.Result.Etag,
		ContentType: obj.ContentType,
	})
}

// ListObjects pages through the metadata index in name order.
func (s *Store) ListObjects(ctx context.Context, bucket string) iter.Seq2[filegate.Object, error] {
	return func(yield func(filegate.Object, error) bool) {
		if err := s.requireBucket(ctx, bucket); err != nil {
			yield(filegate.Object{}, fmt.Errorf("list objects: %w", err))
			return
		}

		q := filegate.ListQuery{Bucket: bucket, Limit: s.pageSize}
		for {
			page, err := s.repo.List(ctx, q)
			if err != nil {
				yield(filegate.Object{}, fmt.Errorf("list objects: %w", err))
				return
			}

			for _, m := range page.Items {
				if !yield(m.Object(), nil) {
					return
				}
			}

			if page.Next == "" {
				return
			}
			q.After = page.Next
		}
	}
}

func (s *Store) PresignGet(ctx context.Context, bucket, name string, expiry time.Duration) (filegate.PresignedURL, error) {
	if expiry <= 0 || expiry > MaxExpiry {
		return filegate.PresignedURL{}, fmt.Errorf("presign get: expiry %s out of range: %w", expiry, filegate.ErrInvalidInput)
	}

	if _, err := s.repo.Get(ctx, bucket, name); err != nil {
		return filegate.PresignedURL{}, fmt.Errorf("presign get: %w", err)
	}

	objectPath := "/" + bucket + "/" + name
	query, expiresAt := s.signer.Sign(http.MethodGet, objectPath, expiry)

	u := *s.baseURL
	u.Path = s.baseURL.Path + objectPath
	u.RawPath = ""
	u.RawQuery = query.Encode()

	return filegate.PresignedURL{URL: u.String(), ExpiresAt: expiresAt}, nil
}

// OpenSigned verifies a presigned request for objectPath ("/bucket/name") and
// opens the object. HEAD requests are authorized by GET signatures.
// The caller closes the returned reader.
func (s *Store) OpenSigned(ctx context.Context, method, objectPath string, query url.Values) (filegate.Object, io.ReadSeekCloser, error) {
	if method == http.MethodHead {
		method = http.MethodGet
	}

	if err := s.signer.Verify(method, objectPath, query); err != nil {
		return filegate.Object{}, nil, fmt.Errorf("open signed: %w", err)
	}

	bucket, name, ok := strings.Cut(strings.TrimPrefix(objectPath, "/"), "/")
	if !ok || name == "" {
		return filegate.Object{}, nil, fmt.Errorf("open signed: malformed object path: %w", filegate.ErrNotFound)
	}

	m, f, err := s.open(ctx, bucket, name)
	if err != nil {
		return filegate.Object{}, nil, fmt.Errorf("open signed: %w", err)
	}

	return m.Object(), f, nil
}

// open reads the metadata row and opens the file under the name's read lock.
// An open file keeps its bytes even if a later commit renames over it.
func (s *Store) open(ctx context.Context, bucket, name string) (filegate.MetaData, io.ReadSeekCloser, error) {
	mu := s.locks.lockFor(bucket, name)
	mu.RLock()
	defer mu.RUnlock()

	m, err := s.repo.Get(ctx, bucket, name)
	if err != nil {
		return filegate.MetaData{}, nil, err
	}

	f, err := s.files.Get(ctx, blobPath(bucket, name))
	if err != nil {
		return filegate.MetaData{}, nil, err
	}
	return m, f, nil
}
