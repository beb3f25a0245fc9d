package bootstrap

import (
	"context"
	"fmt"
	"time"

	"legal-intake-be/internal/config"
	"legal-intake-be/internal/controller"
	"legal-intake-be/internal/handler"
	"legal-intake-be/internal/pkg/logger"
	"legal-intake-be/internal/pkg/mailer"
	"legal-intake-be/internal/repository/contract"
	"legal-intake-be/internal/repository/implementation"
	"legal-intake-be/internal/repository/memory"
	"legal-intake-be/internal/service"
	"legal-intake-be/internal/websocket"
	"legal-intake-be/pkg/analysis"
	"legal-intake-be/pkg/intake/agent"
	"legal-intake-be/pkg/intake/pipeline"
	"legal-intake-be/pkg/intake/stream"
	"legal-intake-be/pkg/llm/factory"
	pktNats "legal-intake-be/pkg/nats"
	"legal-intake-be/pkg/queue"
	"legal-intake-be/pkg/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const analysisSubject = "jobs.analyze"

type Container struct {
	// Controllers
	AgentController    controller.IAgentController
	DocumentController controller.IDocumentController
	StatusController   controller.IStatusController
	ContextController  controller.IContextController
	StatusHandler      *handler.StatusHandler

	// Background services (run by main)
	ConsumerService service.IAnalysisConsumerService
	TurnService     service.ITurnService
	HandoffService  service.IHandoffService
	WebSocketHub    *websocket.Hub
	// EventSubscriber is nil when NATS is unavailable.
	EventSubscriber service.EventSubscriber

	Logger logger.ILogger

	closers []func() error
}

// NewContainer wires the application. A nil db keeps contexts in memory.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	statusLogger := logger.NewIsolatedLogger(cfg.App.StatusLogFilePath)
	c.Logger = sysLogger

	teams, err := config.LoadTeamConfigs(cfg.App.TeamConfigPath)
	if err != nil {
		return nil, err
	}

	// 1. Repositories
	var contextRepo contract.ConversationContextRepository
	if db != nil {
		contextRepo = implementation.NewConversationContextRepository(db)
	} else {
		sysLogger.Warn("BOOTSTRAP", "No database configured, conversation contexts are kept in memory", nil)
		contextRepo = memory.NewConversationContextRepository()
	}

	var rdb *redis.Client
	statusRepo := memory.NewStatusRepository()
	if cfg.App.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		c.closers = append(c.closers, rdb.Close)
		statusRepo = implementation.NewStatusRepository(rdb)
	}

	// 2. Transport
	jobs, err := newJobQueue(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, jobs.Close)

	var eventPublisher service.EventPublisher
	if publisher, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger); err != nil {
		sysLogger.Warn("BOOTSTRAP", "NATS unavailable, domain events disabled", map[string]interface{}{"error": err.Error()})
	} else {
		eventPublisher = publisher
		c.closers = append(c.closers, func() error { publisher.Close(); return nil })

		subscriber, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOTSTRAP", "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			c.EventSubscriber = subscriber
			c.closers = append(c.closers, func() error { subscriber.Close(); return nil })
		}
	}

	files, err := newFileStore(ctx, cfg, c)
	if err != nil {
		return nil, err
	}

	// 3. Engines
	provider, err := factory.NewLLMProvider(factory.ProviderConfig{
		Provider:    cfg.Ai.LLMProvider,
		Model:       cfg.Ai.LLMModel,
		VisionModel: cfg.Ai.VisionModel,
		BaseURL:     providerBaseURL(cfg),
		APIKey:      cfg.Keys.OpenAI,
		MaxRetries:  cfg.Ai.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	var extractor analysis.Extractor
	if cfg.Analysis.ExtractorURL != "" {
		extractor = analysis.NewHTTPExtractor(cfg.Analysis.ExtractorURL)
	}
	chain := analysis.NewDefaultChain(extractor, provider, sysLogger)

	deps := pipeline.Deps{
		Logger:    sysLogger,
		Moderator: pipeline.NewLLMModerator(provider),
	}
	if cfg.Analysis.PDFServiceURL != "" {
		deps.PDF = pipeline.NewHTTPPDFGenerator(cfg.Analysis.PDFServiceURL)
	}
	intakePipeline := pipeline.New(sysLogger, pipeline.DefaultChain(deps)...)

	// 4. Services
	c.WebSocketHub = websocket.NewHub(rdb, statusLogger)

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	contextService := service.NewContextService(contextRepo, sysLogger)
	statusService := service.NewStatusService(statusRepo, c.WebSocketHub, cfg.Analysis.StatusTTL, statusLogger)
	publisherService := service.NewAnalysisPublisherService(jobs, statusService, sysLogger)
	c.HandoffService = service.NewHandoffService(emailService, teams, eventPublisher, sysLogger)
	c.ConsumerService = service.NewAnalysisConsumerService(
		jobs,
		files,
		chain,
		statusService,
		contextService,
		eventPublisher,
		sysLogger,
		service.AnalysisConsumerConfig{
			Workers:      cfg.Queue.Workers,
			MaxFileBytes: cfg.Analysis.MaxFileBytes,
		},
	)

	agents := agent.NewSet(provider, publisherService, sysLogger)
	turnService := service.NewTurnService(
		teams,
		contextService,
		intakePipeline,
		agents,
		stream.NewResponder(sysLogger),
		c.HandoffService,
		sysLogger,
	)

	c.TurnService = turnService

	// 5. Controllers
	c.AgentController = controller.NewAgentController(turnService, sysLogger)
	c.DocumentController = controller.NewDocumentController(publisherService)
	c.StatusController = controller.NewStatusController(statusService)
	c.ContextController = controller.NewContextController(contextService)
	c.StatusHandler = handler.NewStatusHandler(c.WebSocketHub, statusLogger)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newJobQueue(cfg *config.Config, log logger.ILogger) (queue.Queue, error) {
	switch cfg.Queue.Driver {
	case "nats":
		return pktNats.NewJobQueue(cfg.App.NatsURL, analysisSubject, log)
	case "channel", "":
		return queue.NewChannelQueue(cfg.Queue.AnalysisTopic, int64(cfg.Queue.Workers)), nil
	default:
		return nil, fmt.Errorf("unsupported queue driver: %s", cfg.Queue.Driver)
	}
}

// newFileStore routes uploaded-file keys to local disk or GCS and attachment
// URLs to plain HTTP.
func newFileStore(ctx context.Context, cfg *config.Config, c *Container) (storage.FileStore, error) {
	var primary storage.FileStore
	switch cfg.Storage.Driver {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.GCSCredsPath)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, gcs.Close)
		primary = gcs
	case "local", "":
		primary = storage.NewLocalStore(cfg.Storage.LocalRoot)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
	return storage.NewRouter(primary, storage.NewHTTPStore(30*time.Second)), nil
}

func providerBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "openai" {
		return cfg.Ai.OpenAIBaseURL
	}
	return cfg.Ai.OllamaBaseURL
}
