package conversation

import (
	"context"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

type llmProvider struct {
	name   string
	client LLMClient
}

// FallbackLLMClient tries an ordered chain of LLM providers until one
// answers. The deployment wires Gemini first and Bedrock second, so a
// Gemini outage degrades to Bedrock instead of failing the turn.
type FallbackLLMClient struct {
	chain  []llmProvider
	logger *logging.Logger
}

// NewFallbackLLMClient builds a two-provider chain. A nil fallback leaves a
// single-provider chain, which behaves like the primary client plus logging.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	chain := []llmProvider{{name: "primary", client: primary}}
	if fallback != nil {
		chain = append(chain, llmProvider{name: "fallback", client: fallback})
	}
	return &FallbackLLMClient{chain: chain, logger: logger}
}

var _ LLMClient = (*FallbackLLMClient)(nil)

// Complete walks the chain in order and returns the first successful
// response. Each failure is logged; the last provider's error is returned
// when every provider fails.
func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	var lastErr error
	for i, provider := range c.chain {
		resp, err := provider.client.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("llm provider recovered the turn",
					"provider", provider.name,
					"attempts", i+1,
				)
			}
			return resp, nil
		}

		lastErr = err
		c.logger.Warn("llm provider failed",
			"provider", provider.name,
			"error", err.Error(),
			"remaining", len(c.chain)-i-1,
		)
	}

	c.logger.Error("all llm providers failed", "providers", len(c.chain))
	return LLMResponse{}, lastErr
}
