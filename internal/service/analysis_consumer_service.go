package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"time"

	"legal-intake-be/internal/dto"
	"legal-intake-be/internal/entity"
	"legal-intake-be/internal/metrics"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/pkg/analysis"
	"legal-intake-be/pkg/events"
	"legal-intake-be/pkg/queue"
	"legal-intake-be/pkg/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	milestoneUploaded   = 10
	milestoneStorage    = 25
	milestoneRetrieving = 40
	milestoneAnalyzing  = 60
	milestoneExtracting = 70
	milestoneSummary    = 90

	missingFileSummary = "The uploaded file could not be found. Please upload it again."
	tooLargeSummary    = "The document is too large to analyze."
)

type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc analysis.Document) entity.AnalysisResult
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IAnalysisConsumerService interface {
	Consume(ctx context.Context) error
	// Wait blocks until in-flight jobs finish.
	Wait() error
}

type AnalysisConsumerConfig struct {
	Workers      int
	MaxFileBytes int64
}

type analysisConsumerService struct {
	source   queue.Source
	store    storage.FileStore
	analyzer DocumentAnalyzer
	status   IStatusService
	contexts IContextService
	events   EventPublisher
	logger   logger.ILogger
	cfg      AnalysisConsumerConfig

	group errgroup.Group
}

func NewAnalysisConsumerService(
	source queue.Source,
	store storage.FileStore,
	analyzer DocumentAnalyzer,
	status IStatusService,
	contexts IContextService,
	eventPublisher EventPublisher,
	log logger.ILogger,
	cfg AnalysisConsumerConfig,
) IAnalysisConsumerService {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	cs := &analysisConsumerService{
		source:   source,
		store:    store,
		analyzer: analyzer,
		status:   status,
		contexts: contexts,
		events:   eventPublisher,
		logger:   log,
		cfg:      cfg,
	}
	cs.group.SetLimit(cfg.Workers)
	return cs
}

// Consume subscribes to the job source. Each delivery runs on the worker pool;
// when the pool is full the transport callback blocks.
func (cs *analysisConsumerService) Consume(ctx context.Context) error {
	return cs.source.Start(ctx, func(ctx context.Context, d *queue.Delivery) {
		cs.group.Go(func() error {
			cs.processMessage(ctx, d)
			return nil
		})
	})
}

func (cs *analysisConsumerService) Wait() error {
	return cs.group.Wait()
}

func (cs *analysisConsumerService) processMessage(ctx context.Context, d *queue.Delivery) {
	var job dto.AnalysisJob
	if err := json.Unmarshal(d.Payload, &job); err != nil {
		cs.logger.Error("WORKER", "Failed to unmarshal analysis job", map[string]interface{}{"error": err.Error()})
		metrics.AnalysisJobs.WithLabelValues("unknown", "failed").Inc()
		d.Ack()
		return
	}

	if job.IsAuto() {
		cs.processAuto(ctx, job)
		d.Ack()
		return
	}
	cs.processLegacy(ctx, job, d)
}

// processAuto never asks for redelivery: progress is already visible to the
// user, and a retry would replay milestones on a terminal record.
func (cs *analysisConsumerService) processAuto(ctx context.Context, job dto.AnalysisJob) {
	ctx, span := otel.Tracer("analysis-worker").Start(ctx, "analysis.auto",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("session.id", job.SessionID),
			attribute.String("status.id", job.StatusID),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() { metrics.AnalysisDuration.Observe(time.Since(start).Seconds()) }()

	if job.StatusID == "" {
		cs.logger.Error("WORKER", "Auto analysis job without status id", map[string]interface{}{"session_id": job.SessionID})
		metrics.AnalysisJobs.WithLabelValues("auto", "failed").Inc()
		return
	}
	if job.File == nil || job.File.Key == "" {
		cs.fail(ctx, job, "Missing file reference", entity.FailedAnalysis(missingFileSummary, "missing file reference"))
		return
	}
	file := *job.File

	if !cs.advance(ctx, job.StatusID, milestoneUploaded, "File uploaded") {
		return
	}
	if !cs.advance(ctx, job.StatusID, milestoneStorage, "Checking storage") {
		return
	}
	info, err := cs.store.Stat(ctx, file.Key)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, storage.ErrNotFound) {
			cs.fail(ctx, job, "File not found", entity.FailedAnalysis(missingFileSummary, "file not found"))
			return
		}
		cs.fail(ctx, job, "Storage unavailable", entity.FailedAnalysis("The document could not be retrieved.", err.Error()))
		return
	}
	if info.Size > cs.cfg.MaxFileBytes {
		cs.fail(ctx, job, "File too large", entity.FailedAnalysis(tooLargeSummary, "file too large"))
		return
	}

	if !cs.advance(ctx, job.StatusID, milestoneRetrieving, "Retrieving file") {
		return
	}
	data, err := storage.ReadAll(ctx, cs.store, file.Key, cs.cfg.MaxFileBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		cs.fail(ctx, job, "File too large", entity.FailedAnalysis(tooLargeSummary, "file too large"))
		return
	}
	if err != nil {
		span.RecordError(err)
		cs.fail(ctx, job, "Could not read file", entity.FailedAnalysis("The document could not be retrieved.", err.Error()))
		return
	}

	if !cs.advance(ctx, job.StatusID, milestoneAnalyzing, "Analyzing document") {
		return
	}
	mime := file.Mime
	if mime == "" {
		mime = info.ContentType
	}
	progressCtx := analysis.WithProgress(ctx, func(stage analysis.Stage) {
		switch stage {
		case analysis.StageExtracting:
			cs.advance(ctx, job.StatusID, milestoneExtracting, "Extracting content")
		case analysis.StageSummarizing:
			cs.advance(ctx, job.StatusID, milestoneSummary, "Summarizing")
		}
	})
	result := cs.analyzer.Analyze(progressCtx, analysis.Document{
		Name: file.Name,
		Mime: mime,
		Size: int64(len(data)),
		Data: data,
	})

	if _, err := cs.status.Update(ctx, job.StatusID, entity.StatusPatch{
		Status:  entity.StatusCompleted,
		Message: "Analysis complete",
		Data:    result,
	}); err != nil {
		cs.logger.Warn("WORKER", "Failed to write completed status", map[string]interface{}{"status_id": job.StatusID, "error": err.Error()})
	}
	metrics.AnalysisJobs.WithLabelValues("auto", "completed").Inc()
	if result.Error != "" {
		span.SetStatus(codes.Error, result.Error)
	}

	cs.publishResult(ctx, job, file.Name, entity.DocumentAnalysisRef{
		StatusID:   job.StatusID,
		FileName:   file.Name,
		Summary:    result.Summary,
		Confidence: result.Confidence,
		AnalyzedAt: time.Now(),
	})
	cs.logger.Info("WORKER", "Document analyzed", map[string]interface{}{
		"status_id":  job.StatusID,
		"file":       file.Name,
		"confidence": result.Confidence,
	})
}

// processLegacy keeps only a preview and requeues on transient storage errors.
func (cs *analysisConsumerService) processLegacy(ctx context.Context, job dto.AnalysisJob, d *queue.Delivery) {
	if job.Key == "" || job.SessionID == "" {
		cs.logger.Error("WORKER", "Malformed legacy analysis job", map[string]interface{}{"session_id": job.SessionID})
		metrics.AnalysisJobs.WithLabelValues("legacy", "failed").Inc()
		d.Ack()
		return
	}
	name := path.Base(job.Key)

	var result entity.AnalysisResult
	data, err := storage.ReadAll(ctx, cs.store, job.Key, cs.cfg.MaxFileBytes)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		result = entity.FailedAnalysis(missingFileSummary, "file not found")
	case errors.Is(err, storage.ErrTooLarge):
		result = entity.FailedAnalysis(tooLargeSummary, "file too large")
	case err != nil:
		cs.logger.Warn("WORKER", "Legacy job storage error, requeueing", map[string]interface{}{"key": job.Key, "error": err.Error()})
		metrics.AnalysisJobs.WithLabelValues("legacy", "nack").Inc()
		d.Nack()
		return
	default:
		result = cs.analyzer.Analyze(ctx, analysis.Document{Name: name, Mime: job.Mime, Size: int64(len(data)), Data: data})
	}

	ref := entity.DocumentAnalysisRef{
		FileName:   name,
		Preview:    analysis.Preview(result.Summary),
		Confidence: result.Confidence,
		AnalyzedAt: time.Now(),
	}
	if err := cs.contexts.MergeAnalysis(ctx, job.SessionID, job.OrganizationID, ref); err != nil {
		cs.logger.Warn("WORKER", "Legacy job context merge failed, requeueing", map[string]interface{}{"session_id": job.SessionID, "error": err.Error()})
		metrics.AnalysisJobs.WithLabelValues("legacy", "nack").Inc()
		d.Nack()
		return
	}

	metrics.AnalysisJobs.WithLabelValues("legacy", "completed").Inc()
	d.Ack()
}

// advance writes a milestone. It returns false only when the record is already
// terminal; other write failures are logged and processing continues.
func (cs *analysisConsumerService) advance(ctx context.Context, statusID string, progress int, message string) bool {
	_, err := cs.status.Update(ctx, statusID, entity.StatusPatch{
		Status:   entity.StatusProcessing,
		Message:  message,
		Progress: &progress,
	})
	if errors.Is(err, ErrStatusTerminal) {
		cs.logger.Warn("WORKER", "Status already terminal, dropping job", map[string]interface{}{"status_id": statusID})
		return false
	}
	if err != nil {
		cs.logger.Warn("WORKER", "Status write skipped", map[string]interface{}{"status_id": statusID, "progress": progress, "error": err.Error()})
	}
	return true
}

func (cs *analysisConsumerService) fail(ctx context.Context, job dto.AnalysisJob, message string, result entity.AnalysisResult) {
	if _, err := cs.status.Update(ctx, job.StatusID, entity.StatusPatch{
		Status:  entity.StatusFailed,
		Message: message,
		Data:    result,
	}); err != nil {
		cs.logger.Warn("WORKER", "Failed to write failed status", map[string]interface{}{"status_id": job.StatusID, "error": err.Error()})
	}
	metrics.AnalysisJobs.WithLabelValues("auto", "failed").Inc()
	cs.logger.Warn("WORKER", "Document analysis failed", map[string]interface{}{
		"status_id": job.StatusID,
		"reason":    result.Error,
	})
}

func (cs *analysisConsumerService) publishResult(ctx context.Context, job dto.AnalysisJob, fileName string, ref entity.DocumentAnalysisRef) {
	if err := cs.contexts.MergeAnalysis(ctx, job.SessionID, job.OrganizationID, ref); err != nil {
		cs.logger.Warn("WORKER", "Failed to merge analysis into context", map[string]interface{}{"session_id": job.SessionID, "error": err.Error()})
	}
	if cs.events == nil {
		return
	}
	ev := events.NewDocumentAnalyzed(job.SessionID, job.OrganizationID, job.StatusID, fileName, ref.Confidence)
	if err := cs.events.Publish(ctx, ev); err != nil {
		cs.logger.Warn("WORKER", "Failed to publish analysis event", map[string]interface{}{"status_id": job.StatusID, "error": err.Error()})
	}
}
