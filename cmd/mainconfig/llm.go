package mainconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	appconfig "github.com/vetcareai/vetcare-platform/internal/config"
	"github.com/vetcareai/vetcare-platform/internal/conversation"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// BuildLLMClient selects the completion backend per LLM_PROVIDER. "auto"
// prefers Gemini and falls back to Bedrock when both are configured. The
// returned closer releases the Gemini connection when one was opened.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (conversation.LLMClient, func(), error) {
	var gemini *conversation.GeminiLLMClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
	}
	bedrock := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	closer := func() {
		if gemini != nil {
			_ = gemini.Close()
		}
	}

	switch cfg.LLMProvider {
	case "gemini":
		if gemini == nil {
			return nil, closer, errors.New("LLM_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		return gemini, closer, nil
	case "bedrock":
		return bedrock, closer, nil
	default:
		if gemini != nil {
			return conversation.NewFallbackLLMClient(gemini, bedrock, logger), closer, nil
		}
		logger.Info("GEMINI_API_KEY not set, using Bedrock")
		return bedrock, closer, nil
	}
}
