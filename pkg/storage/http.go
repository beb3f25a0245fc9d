package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPStore fetches files by absolute URL, as sent in turn attachments.
type HTTPStore struct {
	httpClient *http.Client
}

func NewHTTPStore(timeout time.Duration) *HTTPStore {
	return &HTTPStore{httpClient: &http.Client{Timeout: timeout}}
}

func (s *HTTPStore) Stat(ctx context.Context, key string) (FileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, key, nil)
	if err != nil {
		return FileInfo{}, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat %s: %w", key, err)
	}
	resp.Body.Close()
	if err := checkStatus(key, resp.StatusCode); err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Key: key, Size: resp.ContentLength, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (s *HTTPStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	if err := checkStatus(key, resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(key string, code int) error {
	switch {
	case code == http.StatusNotFound || code == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	case code < 200 || code > 299:
		return fmt.Errorf("fetch %s: status %d", key, code)
	}
	return nil
}
