// Package storage reads uploaded files. Writing them is owned by the upload service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound = errors.New("file not found")
	ErrTooLarge = errors.New("file too large")
)

type FileInfo struct {
	Key         string
	Size        int64
	ContentType string
}

type FileStore interface {
	Stat(ctx context.Context, key string) (FileInfo, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReadAll opens key and reads at most maxBytes. Larger files are rejected.
func ReadAll(ctx context.Context, store FileStore, key string, maxBytes int64) ([]byte, error) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, key, maxBytes)
	}
	return data, nil
}

// Router sends absolute http(s) keys to the remote store and everything else to the primary.
type Router struct {
	primary FileStore
	remote  FileStore
}

func NewRouter(primary, remote FileStore) *Router {
	return &Router{primary: primary, remote: remote}
}

func (r *Router) pick(key string) (FileStore, error) {
	if isRemoteKey(key) {
		if r.remote == nil {
			return nil, fmt.Errorf("no remote store configured for %s", key)
		}
		return r.remote, nil
	}
	if r.primary == nil {
		return nil, fmt.Errorf("no primary store configured")
	}
	return r.primary, nil
}

func (r *Router) Stat(ctx context.Context, key string) (FileInfo, error) {
	store, err := r.pick(key)
	if err != nil {
		return FileInfo{}, err
	}
	return store.Stat(ctx, key)
}

func (r *Router) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	store, err := r.pick(key)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, key)
}

func isRemoteKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
