// Package blob provides the binary object storage used for product images.
package blob

import (
	"context"
	"io"
)

// Store writes binary content under a key and returns the publicly
// resolvable URL of the stored object. Stored blobs are never deleted by the
// catalog service, even when the URLs referencing them are dropped.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}
