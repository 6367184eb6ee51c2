// Package minio implements filegate.ObjectStore on any S3-compatible service
// through the MinIO Go client.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/filegate"
)

// Config represents MinIO client configuration
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	// Region pins the signing region so presigning never looks up the bucket location.
	Region string
	// VerifyOnPresign stats the object before minting a URL so missing
	// objects surface as filegate.ErrNotFound.
	VerifyOnPresign bool
}

// Store adapts a MinIO client to filegate.ObjectStore.
type Store struct {
	client *minio.Client
	config *Config
}

// NewStore creates a new MinIO-backed store. No request is made until the
// first operation.
func NewStore(config *Config) (*Store, error) {
	if config == nil {
		return nil, errors.New("new minio store: config cannot be nil")
	}

	region := config.Region
	if region == "" {
		region = filegate.DefaultRegion
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio store: failed to create MinIO client: %w", err)
	}

	return &Store{
		client: client,
		config: config,
	}, nil
}

// Client exposes the underlying MinIO client.
func (s *Store) Client() *minio.Client {
	return s.client
}

func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("bucket exists: %w", mapError(err))
	}
	return exists, nil
}

func (s *Store) MakeBucket(ctx context.Context, bucket, region string) error {
	err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
	if err != nil {
		// Lost a creation race with another gateway.
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return fmt.Errorf("make bucket: %w", mapError(err))
	}
	return nil
}

func (s *Store) PutObject(ctx context.Context, bucket string, obj filegate.PutObject, content io.Reader) (filegate.Object, error) {
	info, err := s.client.PutObject(ctx, bucket, obj.Name, content, obj.Size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return filegate.Object{}, fmt.Errorf("put object: %w", mapError(err))
	}

	lastModified := info.LastModified
	if lastModified.IsZero() {
		lastModified = time.Now().UTC()
	}

	return filegate.Object{
		Name:         info.Key,
		Size:         info.Size,
		ContentType:  obj.ContentType,
		ETag:         info.ETag,
		LastModified: lastModified,
	}, nil
}

// ListObjects lists bucket recursively. Stopping the iteration early cancels
// the underlying listing.
func (s *Store) ListObjects(ctx context.Context, bucket string) iter.Seq2[filegate.Object, error] {
	return func(yield func(filegate.Object, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		for info := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
			if info.Err != nil {
				yield(filegate.Object{}, fmt.Errorf("list objects: %w", mapError(info.Err)))
				return
			}

			if !yield(objectFromInfo(info), nil) {
				return
			}
		}
	}
}

func (s *Store) PresignGet(ctx context.Context, bucket, name string, expiry time.Duration) (filegate.PresignedURL, error) {
	if s.config.VerifyOnPresign {
		if _, err := s.client.StatObject(ctx, bucket, name, minio.StatObjectOptions{}); err != nil {
			return filegate.PresignedURL{}, fmt.Errorf("presign get: %w", mapError(err))
		}
	}

	issued := time.Now().UTC()
	u, err := s.client.PresignedGetObject(ctx, bucket, name, expiry, nil)
	if err != nil {
		return filegate.PresignedURL{}, fmt.Errorf("presign get: %w", mapError(err))
	}

	return filegate.PresignedURL{URL: u.String(), ExpiresAt: issued.Add(expiry)}, nil
}

func objectFromInfo(info minio.ObjectInfo) filegate.Object {
	return filegate.Object{
		Name:         info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}
}

// mapError classifies a MinIO error into the filegate sentinels. Context
// errors pass through untouched.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %w", filegate.ErrNotFound, err)
	case "InvalidArgument", "InvalidObjectName", "XMinioInvalidObjectName", "KeyTooLongError", "InvalidBucketName":
		return fmt.Errorf("%w: %w", filegate.ErrInvalidInput, err)
	default:
		return fmt.Errorf("%w: %w", filegate.ErrUnavailable, err)
	}
}
