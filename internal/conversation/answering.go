package conversation

import (
	"context"
	"strings"

	"github.com/vetcareai/vetcare-platform/internal/knowledge"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Retriever is the opaque knowledge-retrieval capability: given a question,
// return ordered passages with source metadata. May return empty.
type Retriever interface {
	RetrieveContext(ctx context.Context, question string, topK int) ([]knowledge.Passage, error)
}

const answeringTopK = 4

const answeringSystemPrompt = `Eres el asistente virtual de la clínica veterinaria VetCare AI.
Responde la pregunta del cliente usando EXCLUSIVAMENTE el contexto proporcionado.
Si el contexto no contiene la respuesta, dilo honestamente y sugiere contactar a la clínica.
Responde en español, de forma breve y amable.

Contexto:
%s`

const (
	offDomainMessage  = "Esa consulta está fuera de mi especialidad: solo puedo ayudarte con temas de salud y cuidado de mascotas, o con los servicios de nuestra clínica. ¿Hay algo sobre tu mascota en lo que pueda ayudarte?"
	noContextMessage  = "No tengo información sobre eso en mi base de conocimiento. Te recomiendo contactar directamente a la clínica para resolverlo. ¿Puedo ayudarte con algo más sobre tu mascota?"
	answerFailMessage = "Lo siento, tuve un problema al preparar la respuesta. ¿Podrías intentarlo de nuevo en un momento?"
)

// veterinaryDomainKeywords is a rough allowlist: a question touching none of
// these is treated as off-domain and declined without invoking the LLM.
var veterinaryDomainKeywords = []string{
	"mascota", "animal", "perro", "perra", "cachorro", "gato", "gata", "gatito",
	"ave", "pájaro", "conejo", "hámster", "tortuga", "pez",
	"veterinari", "clínica", "clinica", "consulta", "cita", "vacun",
	"desparasit", "esteriliz", "castra", "cirugía", "cirugia",
	"síntoma", "sintoma", "enferm", "dolor", "vómito", "vomito", "diarrea",
	"pulga", "garrapata", "parásito", "parasito",
	"comida", "aliment", "croqueta", "dieta", "peso",
	"pelo", "pelaje", "baño", "uñas", "dientes", "oído", "oido", "ojo", "piel",
	"horario", "hora", "abren", "cierran", "precio", "costo", "cuesta",
	"dirección", "direccion", "ubicación", "ubicacion", "servicio",
}

func isVeterinaryDomain(question string) bool {
	lowered := strings.ToLower(question)
	for _, kw := range veterinaryDomainKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// AnswerAgent answers informational questions grounded on retrieved
// knowledge passages.
type AnswerAgent struct {
	client    LLMClient
	model     string
	retriever Retriever
	logger    *logging.Logger
}

// NewAnswerAgent creates the question-answering handler.
func NewAnswerAgent(client LLMClient, model string, retriever Retriever, logger *logging.Logger) *AnswerAgent {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if retriever == nil {
		panic("conversation: retriever cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AnswerAgent{
		client:    client,
		model:     model,
		retriever: retriever,
		logger:    logger,
	}
}

// Answer resolves one informational turn: domain guard, retrieval, then a
// grounded completion. Every failure path yields a natural-language message.
func (a *AnswerAgent) Answer(ctx context.Context, state *ConversationState) TurnResult {
	question := state.LastUserMessage()

	if !isVeterinaryDomain(question) {
		return TurnResult{Message: offDomainMessage}
	}

	passages, err := a.retriever.RetrieveContext(ctx, question, answeringTopK)
	if err != nil {
		a.logger.Warn("context retrieval failed",
			"conversation_id", state.ConversationID,
			"error", err,
		)
		passages = nil
	}
	if len(passages) == 0 {
		return TurnResult{Message: noContextMessage}
	}

	var contextBlock strings.Builder
	for i, p := range passages {
		if i > 0 {
			contextBlock.WriteString("\n---\n")
		}
		contextBlock.WriteString(p.Content)
		if p.Source != "" {
			contextBlock.WriteString("\n(Fuente: " + p.Source + ")")
		}
	}

	resp, err := a.client.Complete(ctx, LLMRequest{
		Model:     a.model,
		System:    []string{strings.Replace(answeringSystemPrompt, "%s", contextBlock.String(), 1)},
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: question}},
		MaxTokens: 500,
	})
	if err != nil {
		a.logger.Error("answer generation failed",
			"conversation_id", state.ConversationID,
			"error", err,
		)
		return TurnResult{Message: answerFailMessage}
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return TurnResult{Message: noContextMessage}
	}
	return TurnResult{Message: text}
}
