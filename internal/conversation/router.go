package conversation

import (
	"context"
	"strings"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// cancellationKeywords break out of an in-progress booking. Matched as
// case-insensitive substrings of the user turn.
var cancellationKeywords = []string{
	"cancelar",
	"cancel",
	"no quiero",
	"olvídalo",
	"salir",
	"stop",
	"chao",
}

// safetyNoticeMessage is the fixed reply for inputs flagged by the guard.
const safetyNoticeMessage = "Detecté un patrón inusual en tu mensaje. Por tu seguridad y la del sistema, te conectaré con un agente humano que podrá ayudarte mejor."

// RouteDecision is the router's verdict for one turn.
type RouteDecision struct {
	Destination Destination
	// Message is set only when the guard blocked the input; it is the fixed
	// safety notice the engine should emit verbatim.
	Message string
	// Blocked marks a safety rejection (guard match).
	Blocked bool
	// Cancelled marks that a cancellation keyword matched. The router never
	// mutates booking memory itself; the engine consumes this signal.
	Cancelled bool
	// ClassifierFailed marks that the destination is the fail-safe default
	// rather than a real classification.
	ClassifierFailed bool
}

// Router classifies a single user turn into a destination. An in-progress
// booking short-circuits classification unless the user explicitly cancels.
type Router struct {
	classifier     IntentClassifier
	maxInputLength int
	logger         *logging.Logger
}

// NewRouter creates a router with injected classifier and guard bound.
func NewRouter(classifier IntentClassifier, maxInputLength int, logger *logging.Logger) *Router {
	if classifier == nil {
		panic("conversation: classifier cannot be nil")
	}
	if maxInputLength <= 0 {
		maxInputLength = 1000
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{
		classifier:     classifier,
		maxInputLength: maxInputLength,
		logger:         logger,
	}
}

// Route decides the destination for the latest user turn. The guard check
// runs first and cannot be overridden by any later rule. Route never mutates
// the booking memory.
func (r *Router) Route(ctx context.Context, state *ConversationState) RouteDecision {
	guard := ScanInput(state.LastUserMessage(), r.maxInputLength)
	if !guard.Safe {
		r.logger.Warn("unsafe input blocked",
			"conversation_id", state.ConversationID,
			"reason", guard.Reason,
		)
		return RouteDecision{
			Destination: DestinationEscalateToHuman,
			Message:     safetyNoticeMessage,
			Blocked:     true,
		}
	}

	lowered := strings.ToLower(guard.Text)
	cancelled := false
	for _, kw := range cancellationKeywords {
		if strings.Contains(lowered, kw) {
			cancelled = true
			break
		}
	}

	// An in-progress booking always continues unless the user opts out.
	// This guarantees monotonic progress through slot-filling without
	// re-classifying every turn.
	if !state.Booking.IsEmpty() && !cancelled {
		return RouteDecision{Destination: DestinationScheduleAppointment}
	}

	dest, err := r.classifier.ClassifyIntent(ctx, guard.Text)
	if err != nil {
		// Fail safe: an unclassifiable turn goes to a human.
		r.logger.Warn("intent classification failed, escalating",
			"conversation_id", state.ConversationID,
			"error", err,
		)
		return RouteDecision{
			Destination:      DestinationEscalateToHuman,
			Cancelled:        cancelled,
			ClassifierFailed: true,
		}
	}

	// A cancel turn may re-route anywhere except straight back into the
	// flow the user just abandoned.
	if cancelled && !state.Booking.IsEmpty() && dest == DestinationScheduleAppointment {
		dest = DestinationTechnicalQuestion
	}

	return RouteDecision{Destination: dest, Cancelled: cancelled}
}
