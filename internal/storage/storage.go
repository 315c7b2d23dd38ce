// Package storage keeps uploaded evidence files (order images, bill photos,
// visiting cards, voice notes) in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"orderledger/internal/config"
	"orderledger/internal/domain"
)

// MaxUploadSize bounds a single uploaded file.
const MaxUploadSize = 20 << 20

// Categories accepted by Put; each maps to a key prefix.
var categories = map[string]bool{
	"orders":         true,
	"bills":          true,
	"visiting-cards": true,
	"audio":          true,
}

// ErrStorageDisabled is returned when no object store is configured.
var ErrStorageDisabled = errors.New("object storage not configured")

// Bucket is the subset of the MinIO client the store needs.
type Bucket interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type Store struct {
	client  Bucket
	bucket  string
	baseURL string
	now     func() time.Time
}

// New wraps client. Object URLs are baseURL/bucket/key.
func New(client Bucket, bucket, baseURL string) *Store {
	return &Store{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// NewMinIO connects to the configured endpoint. publicHost overrides the
// host used in returned URLs.
func NewMinIO(cfg config.MinIOConfig, publicHost string) (*Store, error) {
	if cfg.Endpoint == "" {
		return nil, ErrStorageDisabled
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	base := publicHost
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return New(client, cfg.Bucket, base), nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put stores an image or audio file under category and returns its URL.
func (s *Store) Put(ctx context.Context, category, filename, contentType string, r io.Reader, size int64) (*Object, error) {
	if !categories[category] {
		return nil, domain.Invalid("Unknown upload category")
	}
	if size <= 0 {
		return nil, domain.Invalid("File is empty")
	}
	if size > MaxUploadSize {
		return nil, domain.Invalid("File is too large")
	}
	contentType = normalizeContentType(contentType, filename)
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "audio/") {
		return nil, domain.Invalid("Only image and audio files can be uploaded")
	}

	key := fmt.Sprintf("%s/%s/%s%s", category, s.now().Format("2006/01/02"), uuid.NewString(), strings.ToLower(path.Ext(filename)))
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &Object{
		Key:         key,
		URL:         s.baseURL + "/" + s.bucket + "/" + key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

func normalizeContentType(contentType, filename string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); byExt != "" {
		mt, _, _ := mime.ParseMediaType(byExt)
		return mt
	}
	return "application/octet-stream"
}
