package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/pkg/mailer"
	"legal-intake-be/internal/repository/contract"
	"legal-intake-be/internal/repository/memory"
	"legal-intake-be/pkg/events"
	"legal-intake-be/pkg/storage"
)

var errBackend = errors.New("backend unavailable")

// flakyContextRepo wraps the in-memory repository and fails on demand.
type flakyContextRepo struct {
	contract.ConversationContextRepository
	failFind bool
	failSave bool
	saves    int
}

func newFlakyContextRepo() *flakyContextRepo {
	return &flakyContextRepo{ConversationContextRepository: memory.NewConversationContextRepository()}
}

func (r *flakyContextRepo) FindBySession(ctx context.Context, sessionID, organizationID string) (*entity.ConversationContext, error) {
	if r.failFind {
		return nil, errBackend
	}
	return r.ConversationContextRepository.FindBySession(ctx, sessionID, organizationID)
}

func (r *flakyContextRepo) Save(ctx context.Context, conv *entity.ConversationContext) error {
	r.saves++
	if r.failSave {
		return errBackend
	}
	return r.ConversationContextRepository.Save(ctx, conv)
}

func (r *flakyContextRepo) Mutate(ctx context.Context, sessionID, organizationID string, fn func(*entity.ConversationContext) error) error {
	r.saves++
	if r.failSave {
		return errBackend
	}
	return r.ConversationContextRepository.Mutate(ctx, sessionID, organizationID, fn)
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []entity.StatusRecord
}

func (n *recordingNotifier) NotifyStatus(rec entity.StatusRecord) {
	n.mu.Lock()
	n.records = append(n.records, rec)
	n.mu.Unlock()
}

func (n *recordingNotifier) Records() []entity.StatusRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]entity.StatusRecord(nil), n.records...)
}

type mapStore struct {
	files   map[string][]byte
	statErr error
	openErr error
}

func (s *mapStore) Stat(ctx context.Context, key string) (storage.FileInfo, error) {
	if s.statErr != nil {
		return storage.FileInfo{}, s.statErr
	}
	data, ok := s.files[key]
	if !ok {
		return storage.FileInfo{}, storage.ErrNotFound
	}
	return storage.FileInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *mapStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	data, ok := s.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.HandoffSummary
	to   []string
}

func (m *recordingMailer) SendHandoff(toEmail string, summary mailer.HandoffSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, toEmail)
	m.sent = append(m.sent, summary)
	return nil
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
