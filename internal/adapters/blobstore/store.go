// Package blobstore keeps rendered court list files in an S3-compatible bucket and hands out
// time-limited retrieval URLs for them.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/core"
)

const defaultRegion = "us-east-1"

// ErrBlobNotFound is returned by Download when the object does not exist.
var ErrBlobNotFound = core.ErrBlobNotFound

// Options groups dependencies for Store.
type Options struct {
	Config config.BlobStoreConfig // Required: Endpoint and Bucket must be set
	Logger *slog.Logger           // Optional
}

// Store implements core.BlobStore on MinIO or any S3-compatible service.
type Store struct {
	client *minio.Client
	bucket string
	region string
	expiry time.Duration
	logger *slog.Logger
}

var _ core.BlobStore = (*Store)(nil)

// New constructs a Store. It does not contact the server; call EnsureBucket at startup.
func New(opts Options) (*Store, error) {
	cfg := opts.Config
	cfg.Sanitize()
	if cfg.Endpoint == "" {
		return nil, errors.New("blob store endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("blob store bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		bucket: cfg.Bucket,
		region: region,
		expiry: cfg.URLExpiry,
		logger: logger.With("component", "blob_store", "bucket", cfg.Bucket),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	s.logger.InfoContext(ctx, "bucket created")
	return nil
}

// Upload stores params.Data under params.Name, replacing any previous object, and returns a
// presigned GET URL valid for the configured expiry.
func (s *Store) Upload(ctx context.Context, params core.UploadParams) (string, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return "", errors.New("blob name is required")
	}
	if len(params.Data) == 0 {
		return "", errors.New("blob data is empty")
	}
	contentType := params.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(params.Data), int64(len(params.Data)),
		minio.PutObjectOptions{
			ContentType:          contentType,
			SendContentMd5:       true,
			DisableContentSha256: true,
		})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, name, s.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", name, err)
	}
	s.logger.DebugContext(ctx, "blob uploaded", "name", name, "size", info.Size, "etag", info.ETag)
	return u.String(), nil
}

// Download returns the object's bytes, or ErrBlobNotFound.
func (s *Store) Download(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("blob name is required")
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapError(name, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapError(name, err)
	}
	return data, nil
}

// Health reports whether the bucket is reachable.
func (s *Store) Health(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("blob store health: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *Store) mapError(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	return fmt.Errorf("get object %s: %w", name, err)
}
