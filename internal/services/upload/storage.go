package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the storage backend the pipeline writes to
type ObjectStore interface {
	// Put stores an object
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Compose concatenates previously stored objects into destKey
	Compose(ctx context.Context, destKey string, srcKeys []string, contentType string) error

	// Delete removes an object; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for a stored object
	URL(key string) string
}

// MinioConfig configures the S3-compatible object store
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// MinioStore is the production ObjectStore backed by an S3-compatible server
type MinioStore struct {
	client *minio.Client
	cfg    MinioConfig
}

// NewMinioStore connects to the configured object store
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is not configured")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}

	return &MinioStore{client: client, cfg: cfg}, nil
}

func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("putting object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) Compose(ctx context.Context, destKey string, srcKeys []string, contentType string) error {
	srcs := make([]minio.CopySrcOptions, len(srcKeys))
	for i, key := range srcKeys {
		srcs[i] = minio.CopySrcOptions{Bucket: s.cfg.Bucket, Object: key}
	}

	dst := minio.CopyDestOptions{
		Bucket:          s.cfg.Bucket,
		Object:          destKey,
		UserMetadata:    map[string]string{"Content-Type": contentType},
		ReplaceMetadata: true,
	}

	if _, err := s.client.ComposeObject(ctx, dst, srcs...); err != nil {
		return fmt.Errorf("composing object %s from %d parts: %w", destKey, len(srcKeys), err)
	}
	return nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) URL(key string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket)
	}
	return strings.TrimRight(base, "/") + "/" + key
}

// MemoryStore is an in-memory ObjectStore for tests and local development
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *MemoryStore) Compose(ctx context.Context, destKey string, srcKeys []string, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	for _, key := range srcKeys {
		data, ok := s.objects[key]
		if !ok {
			return fmt.Errorf("compose source %s not found", key)
		}
		buf.Write(data)
	}
	s.objects[destKey] = buf.Bytes()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) URL(key string) string {
	return "memory://" + key
}

// Object returns a stored object's bytes, for assertions in tests
func (s *MemoryStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys lists all stored object keys
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	return keys
}
