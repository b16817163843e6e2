package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetcareai/vetcare-platform/internal/observability/metrics"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

const (
	greetingMessage = "¡Hola! Soy el asistente virtual de la clínica VetCare AI. Puedo responder preguntas sobre el cuidado de tu mascota o ayudarte a agendar una cita. ¿En qué puedo ayudarte hoy?"
	genericFailure  = "Lo siento, ocurrió un problema inesperado al procesar tu mensaje. ¿Podrías intentarlo de nuevo?"
)

// Engine wires Router → {Answering, Booking, Escalation} and owns the
// per-conversation state lifecycle. One turn fully resolves before the next
// is accepted; callers must serialize turns for the same conversation.
type Engine struct {
	router     *Router
	booking    *BookingAgent
	answering  *AnswerAgent
	escalation *EscalationAgent
	states     StateStore
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
}

var _ Service = (*Engine)(nil)

// NewEngine constructs the turn engine with injected handlers and storage.
// metrics may be nil; every observe method tolerates that.
func NewEngine(router *Router, booking *BookingAgent, answering *AnswerAgent, escalation *EscalationAgent, states StateStore, m *metrics.ConversationMetrics, logger *logging.Logger) *Engine {
	if router == nil {
		panic("conversation: router cannot be nil")
	}
	if booking == nil {
		panic("conversation: booking agent cannot be nil")
	}
	if answering == nil {
		panic("conversation: answer agent cannot be nil")
	}
	if escalation == nil {
		panic("conversation: escalation agent cannot be nil")
	}
	if states == nil {
		panic("conversation: state store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		router:     router,
		booking:    booking,
		answering:  answering,
		escalation: escalation,
		states:     states,
		metrics:    m,
		logger:     logger,
	}
}

// StartConversation creates an empty state and greets the user.
func (e *Engine) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	id := req.ConversationID
	if id == "" {
		id = uuid.NewString()
	}

	state := NewConversationState(id)
	state.AppendAssistant(greetingMessage)

	if err := e.states.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("conversation: failed to persist new conversation: %w", err)
	}

	e.logger.Info("conversation started", "conversation_id", id, "channel", string(req.Channel))

	return &Response{
		ConversationID: id,
		Message:        greetingMessage,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// ProcessMessage runs one full turn: load state, route, dispatch, persist.
func (e *Engine) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	if req.ConversationID == "" {
		return nil, errors.New("conversation: conversation_id is required")
	}

	state, err := e.states.Load(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	state.AppendUser(req.Message)

	decision := e.router.Route(ctx, state)
	state.PendingDestination = decision.Destination

	// Cancellation clears the booking; the router itself never mutates it.
	if decision.Cancelled && !state.Booking.IsEmpty() {
		e.logger.Info("booking cancelled by user", "conversation_id", state.ConversationID)
		state.ResetBooking()
	}

	result := e.dispatch(ctx, state, decision)
	state.AppendAssistant(result.Message)
	state.PendingDestination = ""

	if err := e.states.Save(ctx, state); err != nil {
		// The turn already resolved; a persistence failure must not eat the reply.
		e.logger.Error("failed to persist conversation state",
			"conversation_id", state.ConversationID,
			"error", err,
		)
	}

	e.observe(decision, result, time.Since(started).Seconds())

	return &Response{
		ConversationID: state.ConversationID,
		Message:        result.Message,
		Destination:    decision.Destination,
		Terminated:     result.Terminate,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// GetHistory returns the transcript for a conversation.
func (e *Engine) GetHistory(ctx context.Context, conversationID string) ([]Message, error) {
	state, err := e.states.Load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	history := make([]Message, 0, len(state.History))
	for _, msg := range state.History {
		history = append(history, Message{Role: msg.Role, Content: msg.Content})
	}
	return history, nil
}

// dispatch matches the destination enum exhaustively. A panic inside a
// handler is caught here and surfaced as a generic failure message so the
// session loop never dies.
func (e *Engine) dispatch(ctx context.Context, state *ConversationState, decision RouteDecision) (result TurnResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked",
				"conversation_id", state.ConversationID,
				"destination", string(decision.Destination),
				"panic", fmt.Sprint(r),
			)
			result = TurnResult{Message: genericFailure}
		}
	}()

	switch decision.Destination {
	case DestinationScheduleAppointment:
		return e.booking.Advance(ctx, state)
	case DestinationTechnicalQuestion:
		return e.answering.Answer(ctx, state)
	case DestinationEscalateToHuman:
		if decision.Blocked {
			// A guard rejection is a real handoff: the safety notice is
			// followed by the ticket acknowledgment, and the booking does
			// not survive it.
			result = e.escalation.Escalate(ctx, state)
			result.Message = decision.Message + "\n\n" + result.Message
			return result
		}
		return e.escalation.Escalate(ctx, state)
	default:
		e.logger.Error("unhandled destination",
			"conversation_id", state.ConversationID,
			"destination", string(decision.Destination),
		)
		return TurnResult{Message: genericFailure}
	}
}

func (e *Engine) observe(decision RouteDecision, result TurnResult, seconds float64) {
	e.metrics.ObserveTurn(string(decision.Destination), seconds)
	if decision.Blocked {
		e.metrics.ObserveBlockedInput()
		e.metrics.ObserveEscalation("blocked_input")
	} else if decision.ClassifierFailed {
		e.metrics.ObserveLLMFailure("classifier")
		e.metrics.ObserveEscalation("classifier_failure")
	} else if decision.Destination == DestinationEscalateToHuman {
		e.metrics.ObserveEscalation("routed")
	}
	if result.Terminate {
		e.metrics.ObserveEscalation("retry_exhausted")
	}
	if result.Confirmed {
		e.metrics.ObserveBookingConfirmed()
	}
}
