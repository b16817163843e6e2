package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractionResult distinguishes a successful partial extraction from a
// field-level validation failure. Invalid is non-nil when some produced
// value failed its slot rules; in that case Fields must be discarded.
type ExtractionResult struct {
	Fields  map[Slot]string
	Invalid *FieldError
}

// FieldExtractor is the structured-extraction capability consumed by the
// booking agent. An error return means the capability itself failed, which
// is distinct from a validation failure carried inside the result.
type FieldExtractor interface {
	ExtractBookingFields(ctx context.Context, known *BookingMemory, text string) (ExtractionResult, error)
}

const fieldExtractorPrompt = `You extract appointment booking data for a veterinary clinic from a customer message, in any language.

Known fields so far (do NOT repeat them unless the message changes them):
%s

Customer message: %s

Extract ONLY fields explicitly mentioned in the message. Possible fields:
- owner_name: the customer's full name
- phone: a contact phone number
- email: a contact email address
- pet_name: the pet's name
- pet_species: the pet's species (dog, cat, ...)
- pet_breed: the pet's breed
- pet_age: the pet's age, as stated
- reason: why they want the appointment
- desired_time: the date/time they want, as stated

Respond with JSON only, omitting fields not mentioned: {"pet_name": "...", ...}`

// LLMFieldExtractor implements FieldExtractor on top of an LLM, validating
// every produced field against the slot rules before returning it.
type LLMFieldExtractor struct {
	client LLMClient
	model  string
}

// NewLLMFieldExtractor creates an LLM-backed booking field extractor.
func NewLLMFieldExtractor(client LLMClient, model string) *LLMFieldExtractor {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	return &LLMFieldExtractor{client: client, model: model}
}

// ExtractBookingFields asks the LLM for the fields mentioned in text and
// validates each one. The first invalid field aborts the whole extraction:
// no partial result from that call is ever merged.
func (e *LLMFieldExtractor) ExtractBookingFields(ctx context.Context, known *BookingMemory, text string) (ExtractionResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ExtractionResult{}, nil
	}

	knownJSON, err := json.Marshal(known)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("conversation: failed to encode known fields: %w", err)
	}

	prompt := fmt.Sprintf(fieldExtractorPrompt, string(knownJSON), text)

	resp, err := e.client.Complete(ctx, LLMRequest{
		Model:     e.model,
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: prompt}},
		MaxTokens: 300,
	})
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("conversation: field extraction failed: %w", err)
	}

	content := strings.TrimSpace(resp.Text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return ExtractionResult{}, fmt.Errorf("conversation: extraction response was not valid JSON: %w", err)
	}

	fields := make(map[Slot]string, len(raw))
	for key, value := range raw {
		slot := Slot(key)
		if _, ok := slotLabels[slot]; !ok {
			// Unknown key from the LLM; ignore rather than fail.
			continue
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		normalized, fieldErr := ValidateSlot(slot, value)
		if fieldErr != nil {
			return ExtractionResult{Invalid: fieldErr}, nil
		}
		fields[slot] = normalized
	}

	return ExtractionResult{Fields: fields}, nil
}
