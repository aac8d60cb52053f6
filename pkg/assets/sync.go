package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SyncOption configures a Sync run.
type SyncOption func(*syncConfig)

type syncConfig struct {
	fingerprint bool
}

// WithFingerprint controls content-hash fingerprinting of published keys.
// Enabled by default: "kinet.js" publishes as "kinet.a1b2c3d4.js".
func WithFingerprint(enabled bool) SyncOption {
	return func(c *syncConfig) {
		c.fingerprint = enabled
	}
}

// Sync publishes every regular file under dir to store, keyed by its
// slash-separated path relative to dir. Hidden files and directories are
// skipped. The returned manifest maps each source path to its published
// key.
func Sync(ctx context.Context, store Store, dir string, opts ...SyncOption) (*Manifest, error) {
	config := syncConfig{fingerprint: true}
	for _, opt := range opts {
		opt(&config)
	}

	manifest := NewManifest()
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		source := filepath.ToSlash(rel)

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}

		key := source
		if config.fingerprint {
			key = fingerprintKey(source, data)
		}
		if err := store.Put(ctx, key, ContentTypeForKey(key), bytes.NewReader(data)); err != nil {
			return fmt.Errorf("publish %s: %w", source, err)
		}
		manifest.Set(source, key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// fingerprintKey inserts a short content hash before the extension:
// "css/app.css" becomes "css/app.1b2c3d4e.css".
func fingerprintKey(key string, data []byte) string {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:4])
	ext := path.Ext(key)
	return strings.TrimSuffix(key, ext) + "." + hash + ext
}
