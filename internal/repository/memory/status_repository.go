package memory

import (
	"context"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type StatusRepository struct {
	cache *cache.Cache
}

func NewStatusRepository() contract.StatusRepository {
	return &StatusRepository{
		cache: cache.New(24*time.Hour, 10*time.Minute),
	}
}

func (r *StatusRepository) Get(ctx context.Context, id string) (*entity.StatusRecord, error) {
	if x, found := r.cache.Get(id); found {
		rec := x.(entity.StatusRecord)
		return &rec, nil
	}
	return nil, nil
}

func (r *StatusRepository) Put(ctx context.Context, rec *entity.StatusRecord, ttl time.Duration) error {
	r.cache.Set(rec.ID, *rec, ttl)
	return nil
}
