package filegate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"
)

const (
	// DefaultBucket is the bucket used when none is configured.
	DefaultBucket = "files"
	// DefaultRegion is passed to MakeBucket when none is configured.
	DefaultRegion = "us-east-1"
	// DefaultPresignExpiry is the lifetime of a download URL.
	DefaultPresignExpiry = 10 * time.Minute
)

// ObjectStore defines the capability set the gateway needs from a storage backend.
// Implementations must be safe for concurrent use.
//
// Errors should wrap ErrNotFound when the object (not the bucket) is missing,
// ErrInvalidInput when the backend rejects a name, and ErrUnavailable for
// everything else. Unclassified errors are treated as ErrUnavailable.
type ObjectStore interface {
	// BucketExists reports whether bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// MakeBucket creates bucket in region.
	MakeBucket(ctx context.Context, bucket, region string) error

	// PutObject stores content under obj.Name, replacing any existing object.
	// obj.Size is -1 when unknown.
	PutObject(ctx context.Context, bucket string, obj PutObject, content io.Reader) (Object, error)

	// ListObjects yields every object in bucket, recursively, in backend order.
	// A non-nil error ends the sequence.
	ListObjects(ctx context.Context, bucket string) iter.Seq2[Object, error]

	// PresignGet mints a GET URL for name valid for expiry.
	PresignGet(ctx context.Context, bucket, name string, expiry time.Duration) (PresignedURL, error)
}

// GatewayConfig holds configuration options for Gateway.
type GatewayConfig struct {
	Bucket            string
	Region            string
	PresignExpiry     time.Duration // default: 10m
	NamePolicy        NamePolicy    // default: permissive
	FailFastOnStartup bool
}

// Gateway forwards upload, list and download requests to an ObjectStore.
// The bucket is fixed for the lifetime of the Gateway.
type Gateway struct {
	store    ObjectStore
	bucket   string
	region   string
	expiry   time.Duration
	policy   NamePolicy
	failFast bool
}

func NewGateway(store ObjectStore, cfg GatewayConfig) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("new gateway: store cannot be nil")
	}

	bucket := cfg.Bucket
	if bucket == "" {
		bucket = DefaultBucket
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	policy := cfg.NamePolicy
	if policy == "" {
		policy = NamePolicyPermissive
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("new gateway: invalid name policy: %s", policy)
	}

	return &Gateway{
		store:    store,
		bucket:   bucket,
		region:   region,
		expiry:   expiry,
		policy:   policy,
		failFast: cfg.FailFastOnStartup,
	}, nil
}

// Bucket returns the bucket every operation targets.
func (g *Gateway) Bucket() string {
	return g.bucket
}

// EnsureBucket creates the bucket if it does not exist yet.
func (g *Gateway) EnsureBucket(ctx context.Context) error {
	exists, err := g.store.BucketExists(ctx, g.bucket)
	if err != nil {
		return storageError("ensure bucket", err)
	}

	if exists {
		return nil
	}

	if err := g.store.MakeBucket(ctx, g.bucket, g.region); err != nil {
		return storageError("ensure bucket", err)
	}

	slog.Info("bucket created", "bucket", g.bucket, "region", g.region)
	return nil
}

// Prepare runs the startup bucket check.
//
// A failure is always logged. It is returned only when the gateway was
// configured with FailFastOnStartup; otherwise the gateway keeps serving and
// later operations fail against the missing bucket with ErrUnavailable.
func (g *Gateway) Prepare(ctx context.Context) error {
	if err := g.EnsureBucket(ctx); err != nil {
		slog.Error("bucket preparation failed", "bucket", g.bucket, "error", err)
		if g.failFast {
			return fmt.Errorf("prepare: %w", err)
		}
		return nil
	}

	slog.Info("bucket ready", "bucket", g.bucket)
	return nil
}

// Upload stores content under obj.Name with obj.ContentType, overwriting any
// object already stored under that name.
func (g *Gateway) Upload(ctx context.Context, obj PutObject, content io.Reader) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, fmt.Errorf("upload: %w", err)
	}

	if content == nil {
		return Object{}, fmt.Errorf("upload: missing content: %w", ErrInvalidInput)
	}

	if !g.policy.Allows(obj.Name) {
		return Object{}, fmt.Errorf("upload: invalid name %q: %w", obj.Name, ErrInvalidInput)
	}

	if obj.ContentType == "" {
		obj.ContentType = DefaultContentType
	}

	stored, err := g.store.PutObject(ctx, g.bucket, obj, content)
	if err != nil {
		return Object{}, storageError(fmt.Sprintf("upload '%s'", obj.Name), err)
	}

	return stored, nil
}

// List materializes the full bucket listing. Any failure discards the
// entries collected so far. An empty bucket yields an empty, non-nil slice.
func (g *Gateway) List(ctx context.Context) ([]Object, error) {
	objects := make([]Object, 0)

	for obj, err := range g.Objects(ctx) {
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

// Objects yields the bucket listing as the store produces it. Each call starts
// a fresh listing. The sequence stops after the first error.
func (g *Gateway) Objects(ctx context.Context) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Object{}, fmt.Errorf("list: %w", err))
			return
		}

		for obj, err := range g.store.ListObjects(ctx, g.bucket) {
			if err != nil {
				// A missing bucket mid-listing is a backend fault, not a 404.
				if errors.Is(err, ErrNotFound) {
					err = fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				yield(Object{}, storageError("list", err))
				return
			}
			if !yield(obj, nil) {
				return
			}
		}
	}
}

// PresignDownload mints a new GET URL for name on every call.
// Failures wrap ErrNotFound when the backend knows the object is missing and
// ErrUnavailable otherwise.
func (g *Gateway) PresignDownload(ctx context.Context, name string) (PresignedURL, error) {
	if err := ctx.Err(); err != nil {
		return PresignedURL{}, fmt.Errorf("presign: %w", err)
	}

	if !g.policy.Allows(name) {
		return PresignedURL{}, fmt.Errorf("presign: invalid name %q: %w", name, ErrInvalidInput)
	}

	url, err := g.store.PresignGet(ctx, g.bucket, name, g.expiry)
	if err != nil {
		return PresignedURL{}, storageError(fmt.Sprintf("presign '%s'", name), err)
	}

	return url, nil
}

// storageError wraps err with op, tagging it ErrUnavailable unless the store
// already classified it.
func storageError(op string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
}
