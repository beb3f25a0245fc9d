package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/repository/contract"

	"github.com/google/uuid"
)

var (
	ErrStatusNotFound = errors.New("status record not found")
	ErrStatusTerminal = errors.New("status record is terminal")
)

// StatusNotifier is told about every successful status write.
// Implemented by the websocket hub.
type StatusNotifier interface {
	NotifyStatus(rec entity.StatusRecord)
}

type IStatusService interface {
	Create(ctx context.Context, sessionID, organizationID, recordType, message string) (*entity.StatusRecord, error)
	Update(ctx context.Context, id string, patch entity.StatusPatch) (*entity.StatusRecord, error)
	Get(ctx context.Context, id string) (*entity.StatusRecord, error)
}

type statusService struct {
	repo     contract.StatusRepository
	notifier StatusNotifier
	ttl      time.Duration
	logger   logger.ILogger
	now      func() time.Time

	locks sync.Map // id -> *sync.Mutex
}

func NewStatusService(repo contract.StatusRepository, notifier StatusNotifier, ttl time.Duration, log logger.ILogger) IStatusService {
	return &statusService{
		repo:     repo,
		notifier: notifier,
		ttl:      ttl,
		logger:   log,
		now:      time.Now,
	}
}

func (s *statusService) Create(ctx context.Context, sessionID, organizationID, recordType, message string) (*entity.StatusRecord, error) {
	now := s.now()
	rec := &entity.StatusRecord{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		OrganizationID: organizationID,
		Type:           recordType,
		Status:         entity.StatusQueued,
		Message:        message,
		Progress:       0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Put(ctx, rec, s.ttl); err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	s.notify(*rec)
	return rec, nil
}

// Update applies patch on top of the stored record. Writes for one id are serialized;
// created time is never touched and progress never goes down unless the record fails.
func (s *statusService) Update(ctx context.Context, id string, patch entity.StatusPatch) (*entity.StatusRecord, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load status %s: %w", id, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrStatusNotFound, id)
	}
	if rec.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrStatusTerminal, id, rec.Status)
	}

	if patch.Status != "" {
		rec.Status = patch.Status
	}
	if patch.Message != "" {
		rec.Message = patch.Message
	}
	if patch.Progress != nil && *patch.Progress > rec.Progress {
		rec.Progress = clampProgress(*patch.Progress)
	}
	switch rec.Status {
	case entity.StatusFailed:
		rec.Progress = 0
	case entity.StatusCompleted:
		rec.Progress = 100
	}
	if patch.Data != nil {
		raw, err := json.Marshal(patch.Data)
		if err != nil {
			return nil, fmt.Errorf("encode status data: %w", err)
		}
		rec.Data = raw
	}
	rec.UpdatedAt = s.now()

	if err := s.repo.Put(ctx, rec, s.ttl); err != nil {
		return nil, fmt.Errorf("save status %s: %w", id, err)
	}
	if rec.Status.Terminal() {
		s.locks.Delete(id)
	}
	s.notify(*rec)
	return rec, nil
}

func (s *statusService) Get(ctx context.Context, id string) (*entity.StatusRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrStatusNotFound, id)
	}
	return rec, nil
}

func (s *statusService) lock(id string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *statusService) notify(rec entity.StatusRecord) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyStatus(rec)
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
