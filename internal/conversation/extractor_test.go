package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBookingFields(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"owner_name": "Ana García", "phone": "(555) 123-4567", "pet_name": "Luna"}`,
	}}
	extractor := NewLLMFieldExtractor(llm, "")

	result, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "Soy Ana García, tel 555 123 4567, mi gata Luna")

	require.NoError(t, err)
	require.Nil(t, result.Invalid)
	assert.Equal(t, "Ana García", result.Fields[SlotOwnerName])
	// Phones are normalized to digits during validation.
	assert.Equal(t, "5551234567", result.Fields[SlotPhone])
	assert.Equal(t, "Luna", result.Fields[SlotPetName])
}

func TestExtractBookingFieldsStripsSurroundingText(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"Here is the extraction:\n```json\n{\"pet_species\": \"gato\"}\n```",
	}}
	extractor := NewLLMFieldExtractor(llm, "")

	result, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "es un gato")

	require.NoError(t, err)
	assert.Equal(t, "gato", result.Fields[SlotPetSpecies])
}

func TestExtractBookingFieldsIgnoresUnknownKeys(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"pet_name": "Luna", "favorite_toy": "ratón de tela"}`,
	}}
	extractor := NewLLMFieldExtractor(llm, "")

	result, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "Luna adora su ratón")

	require.NoError(t, err)
	assert.Len(t, result.Fields, 1)
	assert.Equal(t, "Luna", result.Fields[SlotPetName])
}

func TestExtractBookingFieldsInvalidValueAbortsAll(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`{"owner_name": "Ana García", "pet_age": "muy viejo"}`,
	}}
	extractor := NewLLMFieldExtractor(llm, "")

	result, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "es muy viejo")

	require.NoError(t, err)
	require.NotNil(t, result.Invalid)
	assert.Equal(t, SlotPetAge, result.Invalid.Slot)
	// A validation failure discards the entire call's output.
	assert.Empty(t, result.Fields)
}

func TestExtractBookingFieldsMalformedJSON(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"lo siento, no puedo"}}
	extractor := NewLLMFieldExtractor(llm, "")

	_, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "quiero una cita")

	assert.Error(t, err)
}

func TestExtractBookingFieldsEmptyMessageSkipsLLM(t *testing.T) {
	llm := &scriptedLLM{}
	extractor := NewLLMFieldExtractor(llm, "")

	result, err := extractor.ExtractBookingFields(context.Background(), &BookingMemory{}, "   ")

	require.NoError(t, err)
	assert.Empty(t, result.Fields)
	assert.Empty(t, llm.requests)
}

func TestExtractBookingFieldsSendsKnownFields(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{}`}}
	extractor := NewLLMFieldExtractor(llm, "")
	known := &BookingMemory{PetName: "Luna"}

	_, err := extractor.ExtractBookingFields(context.Background(), known, "más datos")

	require.NoError(t, err)
	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].Messages[0].Content, `"pet_name":"Luna"`)
}
