package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store stores published assets in S3 (or any S3-compatible service)
// for CDN-backed serving.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := assets.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "app/")
//	manifest, err := assets.Sync(ctx, store, "dist")
type S3Store struct {
	client    *s3.Client
	bucket    string
	prefix    string
	maxSize   int64
	urlExpiry time.Duration
}

// NewS3Store creates an S3 store. prefix is prepended to every key and
// gets a trailing slash when missing.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		urlExpiry: 24 * time.Hour,
	}
}

// WithURLExpiry sets how long presigned URLs stay valid (default 24h).
func (s *S3Store) WithURLExpiry(d time.Duration) *S3Store {
	s.urlExpiry = d
	return s
}

// WithMaxSize caps object size in bytes (default: no limit).
func (s *S3Store) WithMaxSize(n int64) *S3Store {
	s.maxSize = n
	return s
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key
}

// Put stores one object under key, replacing any existing object.
func (s *S3Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	// Buffer the object so the SDK gets a seekable, sized body.
	var buf bytes.Buffer
	reader := r
	if s.maxSize > 0 {
		reader = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(&buf, reader)
	if err != nil {
		return err
	}
	if s.maxSize > 0 && n > s.maxSize {
		return fmt.Errorf("%w: %s", ErrTooLarge, cleaned)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(cleaned)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"published-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("assets: s3 put %s: %w", cleaned, err)
	}
	return nil
}

// Open retrieves an object. The caller closes it.
func (s *S3Store) Open(ctx context.Context, key string) (*Object, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(cleaned)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cleaned)
		}
		return nil, fmt.Errorf("assets: s3 get %s: %w", cleaned, err)
	}

	obj := &Object{
		Key:         cleaned,
		ContentType: "application/octet-stream",
		Reader:      out.Body,
	}
	if out.ContentType != nil {
		obj.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		obj.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		obj.ModTime = *out.LastModified
	}
	return obj, nil
}

// URL returns a presigned GET URL for key, valid for the configured
// expiry.
func (s *S3Store) URL(ctx context.Context, key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(cleaned)),
	}, s3.WithPresignExpires(s.urlExpiry))
	if err != nil {
		return "", fmt.Errorf("assets: presign %s: %w", cleaned, err)
	}
	return req.URL, nil
}

// Prune removes objects under the store prefix older than maxAge and
// reports how many it removed.
func (s *S3Store) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var stale []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			if obj.LastModified.Before(cutoff) {
				stale = append(stale, *obj.Key)
			}
		}
	}

	for i, key := range stale {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return i, fmt.Errorf("assets: s3 delete %s: %w", key, err)
		}
	}
	return len(stale), nil
}
