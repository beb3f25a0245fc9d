package service

import (
	"context"
	"encoding/json"
	"fmt"

	"legal-intake-be/internal/dto"
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/intake/agent"
	"legal-intake-be/pkg/queue"
)

const queuedMessage = "Queued for analysis"

type IAnalysisPublisherService interface {
	EnqueueAnalysis(ctx context.Context, sessionID, organizationID string, file agent.DocumentFile) (string, error)
	EnqueueLegacy(ctx context.Context, sessionID, organizationID, key, mime string) error
}

type analysisPublisherService struct {
	publisher queue.Publisher
	status    IStatusService
	logger    logger.ILogger
}

func NewAnalysisPublisherService(publisher queue.Publisher, status IStatusService, log logger.ILogger) IAnalysisPublisherService {
	return &analysisPublisherService{publisher: publisher, status: status, logger: log}
}

// EnqueueAnalysis creates the status record first so the caller can watch it
// even if the worker picks the job up immediately.
func (s *analysisPublisherService) EnqueueAnalysis(ctx context.Context, sessionID, organizationID string, file agent.DocumentFile) (string, error) {
	rec, err := s.status.Create(ctx, sessionID, organizationID, entity.StatusTypeDocumentAnalysis, queuedMessage)
	if err != nil {
		return "", err
	}

	job := dto.AnalysisJob{
		Type:           dto.JobTypeAnalyzeUploadedDocument,
		SessionID:      sessionID,
		OrganizationID: organizationID,
		StatusID:       rec.ID,
		File: &dto.AnalysisJobFile{
			Key:  file.Key,
			Name: file.Name,
			Mime: file.Mime,
			Size: file.Size,
		},
	}
	if err := s.publish(ctx, job); err != nil {
		if _, uerr := s.status.Update(ctx, rec.ID, entity.StatusPatch{
			Status:  entity.StatusFailed,
			Message: "Could not queue the document for analysis",
		}); uerr != nil {
			s.logger.Warn("PUBLISHER", "Failed to mark status as failed", map[string]interface{}{"status_id": rec.ID, "error": uerr.Error()})
		}
		return "", err
	}

	metrics.AnalysisJobs.WithLabelValues("auto", "queued").Inc()
	s.logger.Info("PUBLISHER", "Document analysis queued", map[string]interface{}{
		"session_id": sessionID,
		"status_id":  rec.ID,
		"file":       file.Name,
	})
	return rec.ID, nil
}

// EnqueueLegacy publishes the old top-level job shape. No status record is kept for it.
func (s *analysisPublisherService) EnqueueLegacy(ctx context.Context, sessionID, organizationID, key, mime string) error {
	job := dto.AnalysisJob{
		SessionID:      sessionID,
		OrganizationID: organizationID,
		Key:            key,
		Mime:           mime,
	}
	if err := s.publish(ctx, job); err != nil {
		return err
	}
	metrics.AnalysisJobs.WithLabelValues("legacy", "queued").Inc()
	return nil
}

func (s *analysisPublisherService) publish(ctx context.Context, job dto.AnalysisJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode analysis job: %w", err)
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		return fmt.Errorf("publish analysis job: %w", err)
	}
	return nil
}
