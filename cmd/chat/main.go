package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vetcareai/vetcare-platform/cmd/mainconfig"
	appconfig "github.com/vetcareai/vetcare-platform/internal/config"
	"github.com/vetcareai/vetcare-platform/internal/conversation"
	"github.com/vetcareai/vetcare-platform/internal/knowledge"
	"github.com/vetcareai/vetcare-platform/internal/scheduling"
	"github.com/vetcareai/vetcare-platform/internal/tickets"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// exitKeywords end the terminal session; they are checked before the message
// reaches the assistant, which has its own separate cancellation handling.
var exitKeywords = []string{"salir", "exit", "quit"}

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	// Keep the terminal clean unless the operator asks for more.
	logLevel := cfg.LogLevel
	if os.Getenv("LOG_LEVEL") == "" {
		logLevel = "warn"
	}
	logger := logging.New(logLevel)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	llm, closeLLM, err := mainconfig.BuildLLMClient(ctx, cfg, awsCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build LLM client: %v\n", err)
		os.Exit(1)
	}
	defer closeLLM()

	var embedder knowledge.Embedder
	if cfg.GeminiAPIKey != "" {
		ge, err := knowledge.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create embedder: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = ge.Close() }()
		embedder = ge
	}
	store := knowledge.NewMemoryStore(embedder, logger)
	if embedder != nil && cfg.KnowledgeDir != "" {
		ingestor := knowledge.NewIngestor(store, nil, logger)
		if n, err := ingestor.IngestDir(ctx, cfg.KnowledgeDir); err != nil {
			logger.Warn("knowledge directory ingest failed", "dir", cfg.KnowledgeDir, "error", err)
		} else {
			fmt.Printf("[base de conocimiento: %d pasajes indexados]\n", n)
		}
	}

	simOpts := []scheduling.SimulatorOption{scheduling.WithRate(cfg.AvailabilityRate)}
	if cfg.AvailabilitySeed != 0 {
		simOpts = append(simOpts, scheduling.WithSeed(cfg.AvailabilitySeed))
	}
	scheduler := scheduling.NewSimulator(logger, simOpts...)
	ticketSvc := tickets.NewService(tickets.NewMemoryRepository(), nil, logger)

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
	engine := conversation.NewEngine(
		convRouter, booking, answering, escalation,
		conversation.NewMemoryStateStore(), nil, logger,
	)

	resp, err := engine.StartConversation(ctx, conversation.StartRequest{Channel: conversation.ChannelCLI})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start conversation: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nAsistente: %s\n", resp.Message)
	convID := resp.ConversationID

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nTú: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if isExitKeyword(text) {
			fmt.Println("\nAsistente: ¡Hasta pronto! Cuida mucho a tu mascota.")
			break
		}

		resp, err := engine.ProcessMessage(ctx, conversation.MessageRequest{
			ConversationID: convID,
			Message:        text,
			Channel:        conversation.ChannelCLI,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\nAsistente: %s\n", resp.Message)
		if resp.Terminated {
			break
		}
	}
}

func isExitKeyword(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range exitKeywords {
		if text == kw {
			return true
		}
	}
	return false
}
