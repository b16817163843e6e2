package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/vetcareai/vetcare-platform/cmd/mainconfig"
	"github.com/vetcareai/vetcare-platform/internal/api/router"
	appconfig "github.com/vetcareai/vetcare-platform/internal/config"
	"github.com/vetcareai/vetcare-platform/internal/conversation"
	"github.com/vetcareai/vetcare-platform/internal/knowledge"
	"github.com/vetcareai/vetcare-platform/internal/notify"
	"github.com/vetcareai/vetcare-platform/internal/observability/metrics"
	"github.com/vetcareai/vetcare-platform/internal/scheduling"
	"github.com/vetcareai/vetcare-platform/internal/tickets"
	"github.com/vetcareai/vetcare-platform/internal/webchat"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vetcare-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	llm, closeLLM, err := mainconfig.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		logger.Error("failed to build LLM client", "error", err)
		os.Exit(1)
	}
	defer closeLLM()

	// Knowledge base: in-memory vector store fed from disk and optionally S3.
	var embedder knowledge.Embedder
	if cfg.GeminiAPIKey != "" {
		ge, err := knowledge.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			logger.Error("failed to create embedder", "error", err)
			os.Exit(1)
		}
		defer func() { _ = ge.Close() }()
		embedder = ge
	} else {
		logger.Warn("no embedding backend configured, knowledge retrieval disabled")
	}
	store := knowledge.NewMemoryStore(embedder, logger)

	var ingestor *knowledge.Ingestor
	if cfg.KnowledgeBucket != "" {
		ingestor = knowledge.NewIngestor(store, s3.NewFromConfig(awsCfg), logger)
	} else {
		ingestor = knowledge.NewIngestor(store, nil, logger)
	}
	if embedder != nil {
		ingestKnowledge(ctx, ingestor, cfg, logger)
	}

	// Ticket persistence and escalation notifications.
	var ticketRepo tickets.Repository
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		ticketRepo = tickets.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, tickets stored in memory")
		ticketRepo = tickets.NewMemoryRepository()
	}

	var emailSender notify.EmailSender
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			emailSender = s
		}
	default:
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); s != nil {
			emailSender = s
		}
	}
	notifier := notify.NewService(emailSender, cfg.EscalationEmail, cfg.ClinicName, logger)
	ticketSvc := tickets.NewService(ticketRepo, notifier, logger)

	// Scheduling capability (simulated agenda).
	simOpts := []scheduling.SimulatorOption{scheduling.WithRate(cfg.AvailabilityRate)}
	if cfg.AvailabilitySeed != 0 {
		simOpts = append(simOpts, scheduling.WithSeed(cfg.AvailabilitySeed))
	}
	scheduler := scheduling.NewSimulator(logger, simOpts...)

	// Conversation state.
	var states conversation.StateStore
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		states = conversation.NewRedisStateStore(redis.NewClient(redisOpts), nil)
	} else {
		logger.Warn("REDIS_ADDR not set, conversation state stored in memory")
		states = conversation.NewMemoryStateStore()
	}

	// Core engine.
	m := metrics.NewConversationMetrics(nil)
	convRouter := conversation.NewRouter(
		conversation.NewLLMIntentClassifier(llm, ""),
		cfg.MaxUserInputLength,
		logger,
	)
	booking := conversation.NewBookingAgent(
		conversation.NewLLMFieldExtractor(llm, ""),
		scheduler,
		ticketSvc,
		logger,
		conversation.WithMaxAvailabilityAttempts(cfg.MaxAvailabilityRetries),
	)
	answering := conversation.NewAnswerAgent(llm, "", store, logger)
	escalation := conversation.NewEscalationAgent(ticketSvc, logger)
	engine := conversation.NewEngine(convRouter, booking, answering, escalation, states, m, logger)

	// Queue-backed dispatch in front of the engine.
	var svc conversation.Service
	var orch *conversation.Orchestrator
	if cfg.UseMemoryQueue {
		orch = conversation.NewOrchestrator(engine, conversation.NewMemoryQueue(64), logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
		)
	} else {
		queue := conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ConversationQueueURL)
		jobs := conversation.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.ConversationJobsTable, logger)
		orch = conversation.NewOrchestrator(engine, queue, logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
			conversation.WithJobStore(jobs),
		)
	}
	svc = orch

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(svc, logger),
		WebchatHandler:      webchat.NewHandler(svc, logger),
		KnowledgeHandler:    knowledge.NewHandler(ingestor, store, cfg.KnowledgeDir, cfg.KnowledgeBucket, cfg.KnowledgeBucketPrefix, logger),
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func ingestKnowledge(ctx context.Context, ingestor *knowledge.Ingestor, cfg *appconfig.Config, logger *logging.Logger) {
	if cfg.KnowledgeDir != "" {
		if n, err := ingestor.IngestDir(ctx, cfg.KnowledgeDir); err != nil {
			logger.Warn("knowledge directory ingest failed", "dir", cfg.KnowledgeDir, "error", err)
		} else {
			logger.Info("knowledge directory ingested", "dir", cfg.KnowledgeDir, "passages", n)
		}
	}
	if cfg.KnowledgeBucket != "" {
		if n, err := ingestor.IngestBucket(ctx, cfg.KnowledgeBucket, cfg.KnowledgeBucketPrefix); err != nil {
			logger.Warn("knowledge bucket ingest failed", "bucket", cfg.KnowledgeBucket, "error", err)
		} else {
			logger.Info("knowledge bucket ingested", "bucket", cfg.KnowledgeBucket, "passages", n)
		}
	}
}
