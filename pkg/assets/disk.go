package assets

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DiskStore stores published assets on the local filesystem, for
// development and single-host deployments.
type DiskStore struct {
	dir     string
	maxSize int64
	baseURL string

	mu    sync.RWMutex
	types map[string]string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it when
// missing. maxSize caps object size in bytes (0 = no limit).
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		baseURL: "/static",
		types:   make(map[string]string),
	}, nil
}

// WithBaseURL sets the URL prefix returned by URL (default "/static").
func (s *DiskStore) WithBaseURL(base string) *DiskStore {
	s.baseURL = strings.TrimSuffix(base, "/")
	return s
}

// Put stores one object under key, replacing any existing object.
func (s *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}

	f, err := os.Create(full)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1) // +1 to detect overflow
	}
	written, err := io.Copy(f, reader)
	if err != nil {
		os.Remove(full)
		return err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(full)
		return fmt.Errorf("%w: %s", ErrTooLarge, cleaned)
	}

	s.mu.Lock()
	s.types[cleaned] = contentType
	s.mu.Unlock()
	return nil
}

// Open retrieves an object. The content type is the one given to Put, or
// derived from the key's extension when the store was restarted since.
func (s *DiskStore) Open(ctx context.Context, key string) (*Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(cleaned))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cleaned)
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cleaned)
	}

	s.mu.RLock()
	contentType, ok := s.types[cleaned]
	s.mu.RUnlock()
	if !ok {
		contentType = ContentTypeForKey(cleaned)
	}

	return &Object{
		Key:         cleaned,
		ContentType: contentType,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Reader:      f,
	}, nil
}

// URL returns the base URL joined with the key.
func (s *DiskStore) URL(ctx context.Context, key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + cleaned, nil
}

// Prune removes objects older than maxAge and reports how many it
// removed.
func (s *DiskStore) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(s.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}

		if err := os.Remove(p); err != nil {
			return err
		}
		if rel, err := filepath.Rel(s.dir, p); err == nil {
			s.mu.Lock()
			delete(s.types, filepath.ToSlash(rel))
			s.mu.Unlock()
		}
		removed++
		return nil
	})
	return removed, err
}
