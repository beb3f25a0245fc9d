package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "status:"

type StatusRepositoryRedis struct {
	rdb *redis.Client
}

func NewStatusRepository(rdb *redis.Client) contract.StatusRepository {
	return &StatusRepositoryRedis{rdb: rdb}
}

func (r *StatusRepositoryRedis) Get(ctx context.Context, id string) (*entity.StatusRecord, error) {
	raw, err := r.rdb.Get(ctx, statusKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec entity.StatusRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode status %s: %w", id, err)
	}
	return &rec, nil
}

func (r *StatusRepositoryRedis) Put(ctx context.Context, rec *entity.StatusRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, statusKeyPrefix+rec.ID, raw, ttl).Err()
}
