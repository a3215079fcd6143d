package assets

import (
	"context"
	"time"
)

// Signer turns a private object key into a short-lived public URL.
type Signer interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
