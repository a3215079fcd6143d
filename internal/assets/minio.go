package assets

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioSigner mints pre-signed GET URLs against an S3 compatible store.
// Signing is a local computation; no round trip per link.
type MinioSigner struct {
	client *minio.Client
	bucket string
}

func NewMinioSigner(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioSigner, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build object storage client: %w", err)
	}

	return &MinioSigner{client: client, bucket: bucket}, nil
}

func (s *MinioSigner) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return u.String(), nil
}
