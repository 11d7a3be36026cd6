// Package storage delivers filled contracts to object storage, falling back
// to the local filesystem when the bucket is unreachable.
package storage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// SignedURLTTL is the lifetime of URLs issued for private objects. SigV4
// presigned URLs cannot outlive seven days.
const SignedURLTTL = 7 * 24 * time.Hour

// ObjectStore is the slice of an object storage client the service uses.
// Put returns a URL that resolves for the stored object: under the
// configured public base, or signed for SignedURLTTL when there is none.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Close() error
}

type urlSigner func(ctx context.Context, key string, expiry time.Duration) (string, error)

// objectURL resolves the URL handed out for key. A configured public base
// wins; otherwise the URL is signed, falling back to the direct bucket URL
// when signing fails.
func objectURL(ctx context.Context, sign urlSigner, publicBase, directBase, key string) string {
	if publicBase != "" {
		return joinURL(publicBase, key)
	}
	url, err := sign(ctx, key, SignedURLTTL)
	if err != nil {
		log.Printf("Warning: could not sign URL for %s: %v", key, err)
		return joinURL(directBase, key)
	}
	return url
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
