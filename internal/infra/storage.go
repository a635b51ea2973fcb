package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ravito/internal/config"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrObjectNotFound is returned by Get when nothing is stored under the name.
var ErrObjectNotFound = errors.New("storage: object not found")

// Storage keeps generated documents (closure reports). Names are slash
// separated paths such as "reports/<org>/2025-03-14.pdf".
type Storage interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// NewStorage picks the backend from STORAGE_DRIVER.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStorage(cfg.StorageLocalPath)
	case "gcs":
		return NewGCSStorage(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

// ── Local disk ────────────────────────────────────────────────────────────────

type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

// path keeps name under root: cleaning it as an absolute path drops any "..".
func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.root, filepath.Clean("/"+name))
}

func (s *LocalStorage) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	p := s.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", p, err)
	}
	return name, nil
}

func (s *LocalStorage) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *LocalStorage) Close() error { return nil }

// ── Google Cloud Storage ──────────────────────────────────────────────────────

type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage uses the credentials file when given, application default
// credentials otherwise.
func NewGCSStorage(ctx context.Context, bucket, credentialsFile string) (*GCSStorage, error) {
	if bucket == "" {
		return nil, errors.New("storage: GCS_BUCKET is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("storage: gcs write %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("storage: gcs close %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

func (s *GCSStorage) Get(ctx context.Context, name string) ([]byte, error) {
	name = strings.TrimPrefix(name, fmt.Sprintf("gs://%s/", s.bucket))
	rc, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *GCSStorage) Close() error { return s.client.Close() }
