package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uses the key file when given, otherwise application default credentials.
func NewGCSStore(ctx context.Context, bucket, credentialsPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) object(key string) *storage.ObjectHandle {
	key = strings.TrimPrefix(key, "gs://"+s.bucket+"/")
	return s.client.Bucket(s.bucket).Object(strings.TrimPrefix(key, "/"))
}

func (s *GCSStore) Stat(ctx context.Context, key string) (FileInfo, error) {
	attrs, err := s.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("gcs attrs %s: %w", key, err)
	}
	return FileInfo{Key: key, Size: attrs.Size, ContentType: attrs.ContentType}, nil
}

func (s *GCSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs open %s: %w", key, err)
	}
	return r, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
