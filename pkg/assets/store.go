package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when a key has no published object.
var ErrNotFound = errors.New("assets: object not found")

// ErrTooLarge is returned when an object exceeds the store's size limit.
var ErrTooLarge = errors.New("assets: object too large")

// ErrInvalidKey is returned for keys that are empty, absolute, or escape
// the store root.
var ErrInvalidKey = errors.New("assets: invalid key")

// Store is a published-asset storage backend. Keys are slash-separated
// paths relative to the store root ("css/app.a1b2c3d4.css").
type Store interface {
	// Put stores one object under key, replacing any existing object.
	Put(ctx context.Context, key, contentType string, r io.Reader) error

	// Open retrieves an object. The caller closes it.
	Open(ctx context.Context, key string) (*Object, error)

	// URL returns a browser-reachable URL for key.
	URL(ctx context.Context, key string) (string, error)

	// Prune removes objects older than maxAge and reports how many it
	// removed.
	Prune(ctx context.Context, maxAge time.Duration) (int, error)
}

// Object is one stored asset.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	ModTime     time.Time
	Reader      io.ReadCloser
}

// Close closes the object reader if open.
func (o *Object) Close() error {
	if o.Reader != nil {
		return o.Reader.Close()
	}
	return nil
}

// ContentTypeForKey guesses a content type from the key's extension,
// falling back to application/octet-stream.
func ContentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// cleanKey normalizes a key and rejects anything that would escape the
// store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
