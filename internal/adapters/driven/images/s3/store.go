// Package s3 keeps scanned images in an S3-compatible bucket via minio-go.
package s3

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/docshelf/internal/adapters/driven/images"
	"github.com/custodia-labs/docshelf/internal/core/domain"
	"github.com/custodia-labs/docshelf/internal/core/ports/driven"
	"github.com/custodia-labs/docshelf/internal/logger"
)

// refScheme prefixes references returned by Save.
const refScheme = "s3://"

// Ensure Store implements the interface.
var _ driven.ImageStore = (*Store)(nil)

// Store implements driven.ImageStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore wraps an existing client. prefix is prepended to all keys (e.g. "images/").
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// NewFromSettings builds a client from image settings and ensures the bucket exists.
func NewFromSettings(ctx context.Context, cfg domain.ImageSettings) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 image store: endpoint and bucket are required: %w", domain.ErrInvalidInput)
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.Bucket, err)
		}
	}
	return NewStore(client, cfg.Bucket, cfg.Prefix), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Save uploads source as {prefix}/{id}{ext} and returns an s3://bucket/key reference.
func (s *Store) Save(ctx context.Context, id, source string) (string, error) {
	r, size, err := images.Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer r.Close()

	ext := images.Extension(source)
	key := s.key(id + ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType(ext),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	logger.Debug("uploaded image %s/%s", s.bucket, key)
	return refScheme + s.bucket + "/" + key, nil
}

// Delete removes an image by reference or bare ID. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	var keys []string
	switch {
	case strings.HasPrefix(ref, refScheme):
		keys = []string{strings.TrimPrefix(strings.TrimPrefix(ref, refScheme), s.bucket+"/")}
	case path.Ext(ref) != "":
		keys = []string{s.key(ref)}
	default:
		for _, ext := range images.Extensions {
			keys = append(keys, s.key(ref+ext))
		}
	}

	for _, key := range keys {
		if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			errResp := minio.ToErrorResponse(err)
			if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
				continue
			}
			return fmt.Errorf("delete image: %w", err)
		}
	}
	return nil
}

func contentType(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
