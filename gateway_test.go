package filegate_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sagarc03/filegate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := s.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (s *SpyObjectStore) MakeBucket(ctx context.Context, bucket, region string) error {
	args := s.Called(ctx, bucket, region)
	return args.Error(0)
}

func (s *SpyObjectStore) PutObject(ctx context.Context, bucket string, obj filegate.PutObject, content io.Reader) (filegate.Object, error) {
	args := s.Called(ctx, bucket, obj, content)
	if fn, ok := args.Get(0).(func(context.Context, string, filegate.PutObject, io.Reader) filegate.Object); ok {
		return fn(ctx, bucket, obj, content), args.Error(1)
	}
	return args.Get(0).(filegate.Object), args.Error(1)
}

// ListObjects yields the mocked objects, then the mocked error if any.
func (s *SpyObjectStore) ListObjects(ctx context.Context, bucket string) iter.Seq2[filegate.Object, error] {
	args := s.Called(ctx, bucket)
	objects := args.Get(0).([]filegate.Object)
	listErr := args.Error(1)

	return func(yield func(filegate.Object, error) bool) {
		for _, obj := range objects {
			if !yield(obj, nil) {
				return
			}
		}
		if listErr != nil {
			yield(filegate.Object{}, listErr)
		}
	}
}

func (s *SpyObjectStore) PresignGet(ctx context.Context, bucket, name string, expiry time.Duration) (filegate.PresignedURL, error) {
	args := s.Called(ctx, bucket, name, expiry)
	return args.Get(0).(filegate.PresignedURL), args.Error(1)
}

func newGateway(t *testing.T, cfg filegate.GatewayConfig) (*filegate.Gateway, *SpyObjectStore) {
	t.Helper()
	store := new(SpyObjectStore)
	gw, err := filegate.NewGateway(store, cfg)
	require.NoError(t, err, "new gateway")
	return gw, store
}

func TestNewGateway(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		gw, _ := newGateway(t, filegate.GatewayConfig{})
		assert.Equal(t, "files", gw.Bucket())
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := filegate.NewGateway(nil, filegate.GatewayConfig{})
		assert.Error(t, err)
	})

	t.Run("invalid name policy", func(t *testing.T) {
		_, err := filegate.NewGateway(new(SpyObjectStore), filegate.GatewayConfig{NamePolicy: "lenient"})
		assert.ErrorContains(t, err, "invalid name policy")
	})
}

func TestGateway_Prepare(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("BucketExists", ctx, "files").Return(true, nil)

		assert.NoError(t, gw.Prepare(ctx))

		store.AssertExpectations(t)
		store.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("bucket created when missing", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{Bucket: "uploads", Region: "eu-west-1"})
		store.On("BucketExists", ctx, "uploads").Return(false, nil)
		store.On("MakeBucket", ctx, "uploads", "eu-west-1").Return(nil)

		assert.NoError(t, gw.Prepare(ctx))

		store.AssertExpectations(t)
	})

	t.Run("failure swallowed by default", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("BucketExists", ctx, "files").Return(false, errors.New("connection refused"))

		assert.NoError(t, gw.Prepare(ctx))
	})

	t.Run("failure returned with fail fast", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{FailFastOnStartup: true})
		store.On("BucketExists", ctx, "files").Return(false, nil)
		store.On("MakeBucket", ctx, "files", "us-east-1").Return(errors.New("access denied"))

		err := gw.Prepare(ctx)
		assert.ErrorIs(t, err, filegate.ErrUnavailable)
		assert.ErrorContains(t, err, "access denied")
	})

	t.Run("ensure bucket always reports failure", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("BucketExists", ctx, "files").Return(false, errors.New("timeout"))

		assert.ErrorIs(t, gw.EnsureBucket(ctx), filegate.ErrUnavailable)
	})
}

func TestGateway_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores under original name", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		content := strings.NewReader("hello")
		obj := filegate.PutObject{Name: "hello.txt", ContentType: "text/plain", Size: 5}
		stored := filegate.Object{Name: "hello.txt", Size: 5, ContentType: "text/plain"}

		store.On("PutObject", ctx, "files", obj, content).Return(stored, nil)

		got, err := gw.Upload(ctx, obj, content)
		assert.NoError(t, err)
		assert.Equal(t, stored, got)
		store.AssertExpectations(t)
	})

	t.Run("empty content type defaults to octet-stream", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		content := strings.NewReader("x")

		store.On("PutObject", ctx, "files", mock.MatchedBy(func(o filegate.PutObject) bool {
			return o.ContentType == filegate.DefaultContentType
		}), content).Return(filegate.Object{Name: "blob"}, nil)

		_, err := gw.Upload(ctx, filegate.PutObject{Name: "blob", Size: 1}, content)
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("missing content", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})

		_, err := gw.Upload(ctx, filegate.PutObject{Name: "a.txt"}, nil)
		assert.ErrorIs(t, err, filegate.ErrInvalidInput)
		store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})

		_, err := gw.Upload(ctx, filegate.PutObject{Name: ""}, strings.NewReader("x"))
		assert.ErrorIs(t, err, filegate.ErrInvalidInput)
		store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("permissive policy keeps odd names", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		content := strings.NewReader("x")
		obj := filegate.PutObject{Name: "my report (final).pdf", ContentType: "application/pdf", Size: 1}

		store.On("PutObject", ctx, "files", obj, content).Return(filegate.Object{Name: obj.Name}, nil)

		_, err := gw.Upload(ctx, obj, content)
		assert.NoError(t, err)
	})

	t.Run("strict policy rejects traversal", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{NamePolicy: filegate.NamePolicyStrict})

		_, err := gw.Upload(ctx, filegate.PutObject{Name: "../etc/passwd"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, filegate.ErrInvalidInput)
		store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure is unavailable", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		content := strings.NewReader("x")
		obj := filegate.PutObject{Name: "a.txt", ContentType: "text/plain", Size: 1}

		store.On("PutObject", ctx, "files", obj, content).Return(filegate.Object{}, errors.New("connection reset"))

		_, err := gw.Upload(ctx, obj, content)
		assert.ErrorIs(t, err, filegate.ErrUnavailable)
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("cancelled context", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := gw.Upload(cancelled, filegate.PutObject{Name: "a.txt"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)
		store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGateway_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("backend order preserved", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		objects := []filegate.Object{
			{Name: "b.txt", Size: 2, LastModified: now},
			{Name: "a.txt", Size: 1, LastModified: now},
			{Name: "dir/c.txt", Size: 3, LastModified: now},
		}
		store.On("ListObjects", ctx, "files").Return(objects, nil)

		got, err := gw.List(ctx)
		assert.NoError(t, err)
		assert.Equal(t, objects, got)
	})

	t.Run("empty bucket is empty slice", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("ListObjects", ctx, "files").Return([]filegate.Object{}, nil)

		got, err := gw.List(ctx)
		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("mid-stream failure discards partial results", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("ListObjects", ctx, "files").Return(
			[]filegate.Object{{Name: "a.txt"}},
			errors.New("transport closed"),
		)

		got, err := gw.List(ctx)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, filegate.ErrUnavailable)
	})

	t.Run("missing bucket is unavailable not not-found", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("ListObjects", ctx, "files").Return([]filegate.Object{}, filegate.ErrNotFound)

		_, err := gw.List(ctx)
		assert.ErrorIs(t, err, filegate.ErrUnavailable)
		assert.NotErrorIs(t, err, filegate.ErrNotFound)
	})
}

func TestGateway_Objects(t *testing.T) {
	ctx := context.Background()

	t.Run("early break stops iteration", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("ListObjects", ctx, "files").Return([]filegate.Object{{Name: "a"}, {Name: "b"}, {Name: "c"}}, nil)

		var seen []string
		for obj, err := range gw.Objects(ctx) {
			require.NoError(t, err)
			seen = append(seen, obj.Name)
			if len(seen) == 2 {
				break
			}
		}
		assert.Equal(t, []string{"a", "b"}, seen)
	})

	t.Run("restartable", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("ListObjects", ctx, "files").Return([]filegate.Object{{Name: "a"}}, nil)

		for range 2 {
			count := 0
			for _, err := range gw.Objects(ctx) {
				require.NoError(t, err)
				count++
			}
			assert.Equal(t, 1, count)
		}
		store.AssertNumberOfCalls(t, "ListObjects", 2)
	})
}

func TestGateway_PresignDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("ten minute default expiry", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		url := filegate.PresignedURL{URL: "http://127.0.0.1:9000/files/a.txt?X-Amz-Expires=600"}
		store.On("PresignGet", ctx, "files", "a.txt", 10*time.Minute).Return(url, nil)

		got, err := gw.PresignDownload(ctx, "a.txt")
		assert.NoError(t, err)
		assert.Equal(t, url, got)
	})

	t.Run("configured expiry", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{PresignExpiry: time.Minute})
		store.On("PresignGet", ctx, "files", "a.txt", time.Minute).Return(filegate.PresignedURL{URL: "u"}, nil)

		_, err := gw.PresignDownload(ctx, "a.txt")
		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("mints a new url on every call", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("PresignGet", ctx, "files", "a.txt", 10*time.Minute).Return(filegate.PresignedURL{URL: "u"}, nil)

		_, _ = gw.PresignDownload(ctx, "a.txt")
		_, _ = gw.PresignDownload(ctx, "a.txt")
		store.AssertNumberOfCalls(t, "PresignGet", 2)
	})

	t.Run("not found stays not found", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("PresignGet", ctx, "files", "missing.txt", 10*time.Minute).Return(filegate.PresignedURL{}, filegate.ErrNotFound)

		_, err := gw.PresignDownload(ctx, "missing.txt")
		assert.ErrorIs(t, err, filegate.ErrNotFound)
		assert.NotErrorIs(t, err, filegate.ErrUnavailable)
	})

	t.Run("backend failure is unavailable", func(t *testing.T) {
		gw, store := newGateway(t, filegate.GatewayConfig{})
		store.On("PresignGet", ctx, "files", "a.txt", 10*time.Minute).Return(filegate.PresignedURL{}, errors.New("dial tcp: refused"))

		_, err := gw.PresignDownload(ctx, "a.txt")
		assert.ErrorIs(t, err, filegate.ErrUnavailable)
		assert.NotErrorIs(t, err, filegate.ErrNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		gw, _ := newGateway(t, filegate.GatewayConfig{})

		_, err := gw.PresignDownload(ctx, "")
		assert.ErrorIs(t, err, filegate.ErrInvalidInput)
	})
}

func TestGateway_ConcurrentUploads(t *testing.T) {
	ctx := context.Background()
	gw, store := newGateway(t, filegate.GatewayConfig{})

	store.On("PutObject", ctx, "files", mock.Anything, mock.Anything).Return(
		func(_ context.Context, _ string, obj filegate.PutObject, _ io.Reader) filegate.Object {
			return filegate.Object{Name: obj.Name, Size: obj.Size}
		},
		nil,
	)

	names := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Go(func() {
			obj, err := gw.Upload(ctx, filegate.PutObject{Name: name, Size: 1}, strings.NewReader("x"))
			assert.NoError(t, err)
			assert.Equal(t, name, obj.Name)
		})
	}
	wg.Wait()

	store.AssertNumberOfCalls(t, "PutObject", len(names))
}
