package contract

import (
	"context"
	"time"

	"legal-intake-be/internal/entity"
)

type StatusRepository interface {
	// Get returns nil, nil for unknown or expired ids.
	Get(ctx context.Context, id string) (*entity.StatusRecord, error)
	Put(ctx context.Context, rec *entity.StatusRecord, ttl time.Duration) error
}
