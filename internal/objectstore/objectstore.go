// Package objectstore wraps a gocloud.dev/blob bucket holding prompt
// templates, synthesized audio and timing marks.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

var (
	// ErrObjectNotFound is returned when a key does not exist in the bucket.
	ErrObjectNotFound = errors.New("object not found")

	// ErrForeignURI is returned when a URI does not point into this bucket.
	ErrForeignURI = errors.New("uri does not belong to bucket")
)

// Bucket is a thin wrapper over blob.Bucket that also maps keys to the
// URIs handed out to other components.
type Bucket struct {
	bucket *blob.Bucket
	prefix string
	logger *slog.Logger
}

// Open opens the bucket at bucketURL (file://, mem://, or any scheme
// registered with gocloud.dev/blob).
func Open(ctx context.Context, bucketURL string, logger *slog.Logger) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %q: %w", bucketURL, err)
	}
	return New(b, bucketURL, logger), nil
}

// New wraps an already opened bucket. bucketURL is used only to build
// object URIs; any query string is dropped.
func New(b *blob.Bucket, bucketURL string, logger *slog.Logger) *Bucket {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bucket{
		bucket: b,
		prefix: uriPrefix(bucketURL),
		logger: logger.With("component", "object_store"),
	}
}

// Download reads the object stored under key.
func (b *Bucket) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		b.logger.Error("failed to read object", "key", key, "error", err)
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Upload writes data under key, replacing any existing object.
func (b *Bucket) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	opts := &blob.WriterOptions{ContentType: contentType}
	if err := b.bucket.WriteAll(ctx, key, data, opts); err != nil {
		b.logger.Error("failed to write object", "key", key, "error", err)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	b.logger.Debug("object written", "key", key, "bytes", len(data))
	return nil
}

// Exists reports whether key is present.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.Exists(ctx, key)
}

// URI returns the externally visible URI of key.
func (b *Bucket) URI(key string) string {
	return b.prefix + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURI reverses URI.
func (b *Bucket) KeyFromURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, b.prefix+"/")
	if !ok || rest == "" {
		return "", fmt.Errorf("%w: %s", ErrForeignURI, uri)
	}
	return rest, nil
}

// Close releases the bucket.
func (b *Bucket) Close() error {
	return b.bucket.Close()
}

// uriPrefix drops the query string and trailing slashes of bucketURL,
// keeping the scheme separator intact.
func uriPrefix(bucketURL string) string {
	base, _, _ := strings.Cut(bucketURL, "?")
	scheme, rest, found := strings.Cut(base, "://")
	if !found {
		return strings.TrimRight(base, "/")
	}
	return scheme + "://" + strings.TrimRight(rest, "/")
}
