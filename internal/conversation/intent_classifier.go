package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Destination is the closed set of handlers the router can dispatch to.
type Destination string

const (
	DestinationTechnicalQuestion   Destination = "technical_question"
	DestinationScheduleAppointment Destination = "schedule_appointment"
	DestinationEscalateToHuman     Destination = "escalate_to_human"
)

// Valid reports whether d is one of the three known destinations.
func (d Destination) Valid() bool {
	switch d {
	case DestinationTechnicalQuestion, DestinationScheduleAppointment, DestinationEscalateToHuman:
		return true
	}
	return false
}

// IntentClassifier decides which handler a user turn belongs to. It may fail;
// the router treats any failure as a signal to escalate.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (Destination, error)
}

const intentClassifierPrompt = `Classify this message from a veterinary clinic customer into ONE destination. Respond with JSON only.

Destinations:
- technical_question: Questions about pet health, care, food, symptoms, services, prices, or clinic hours
- schedule_appointment: The customer wants to book, schedule, or arrange a visit or appointment
- escalate_to_human: Complaints, emergencies, explicit requests for a human, or anything you cannot classify

Message: %s

Respond with: {"destination": "<destination_name>"}`

// LLMIntentClassifier implements IntentClassifier on top of an LLM,
// constrained to the destination enum.
type LLMIntentClassifier struct {
	client LLMClient
	model  string
}

// NewLLMIntentClassifier creates an LLM-backed intent classifier.
func NewLLMIntentClassifier(client LLMClient, model string) *LLMIntentClassifier {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	return &LLMIntentClassifier{client: client, model: model}
}

// ClassifyIntent asks the LLM for a destination and validates it against the
// enum. A parse failure or out-of-enum answer is a classification failure.
func (c *LLMIntentClassifier) ClassifyIntent(ctx context.Context, text string) (Destination, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return DestinationTechnicalQuestion, nil
	}

	prompt := strings.Replace(intentClassifierPrompt, "%s", text, 1)

	resp, err := c.client.Complete(ctx, LLMRequest{
		Model:     c.model,
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 50,
	})
	if err != nil {
		return "", fmt.Errorf("conversation: intent classification failed: %w", err)
	}

	var result struct {
		Destination string `json:"destination"`
	}

	// Extract the JSON object in case the LLM wrapped it in extra text.
	content := strings.TrimSpace(resp.Text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return "", fmt.Errorf("conversation: intent response was not valid JSON: %w", err)
	}

	dest := Destination(strings.TrimSpace(result.Destination))
	if !dest.Valid() {
		return "", fmt.Errorf("conversation: intent response %q is not a known destination", result.Destination)
	}
	return dest, nil
}
