package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// AvailabilityChecker is the external scheduling capability. It returns a
// plain boolean; timeout and retry policy belong to the implementation.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, day, hour string) bool
}

// TicketCreator is the external human-handoff ticketing capability.
type TicketCreator interface {
	CreateTicket(ctx context.Context, summary string) (string, error)
}

// TurnResult is what a handler returns for one turn.
type TurnResult struct {
	Message string
	// Terminate signals that the automated flow deliberately ends here
	// (retry exhaustion handoff).
	Terminate bool
	// Confirmed marks a successfully closed booking.
	Confirmed bool
}

const defaultMaxAvailabilityAttempts = 3

const (
	askFieldMessage        = "Para agendar la cita, necesito %s. ¿Podría indicármelo?"
	askFieldForPetMessage  = "Perfecto. Para atender a %s, necesito %s. ¿Podría indicármelo?"
	invalidFieldMessage    = "Lo siento, el dato que me diste para %s no parece válido: %s. ¿Podría repetírmelo, por favor?"
	confirmedMessage       = "¡Listo! He confirmado la cita para %s (%s) el %s.\nDatos de contacto: %s - %s.\n¡Nos vemos pronto en VetCare!"
	unavailableMessage     = "Lo siento, verifiqué la agenda y el horario '%s' NO está disponible (intento %d de %d).\n¿Podría indicarme otra fecha u hora alternativa?"
	retryExhaustedMessage  = "No he podido encontrar un horario disponible tras varios intentos, así que pasé tu caso a nuestra coordinadora. Tu ticket de atención es **%s**; te contactaremos a la brevedad para cerrar la cita."
	ticketUnavailableText  = "PENDIENTE"
	availabilityDayGeneric = "generic"
)

// BookingAgent is the slot-filling state machine: it merges newly extracted
// fields into the accumulated memory, prompts for the first missing field,
// and manages the bounded availability retry that escalates on exhaustion.
type BookingAgent struct {
	extractor   FieldExtractor
	scheduler   AvailabilityChecker
	tickets     TicketCreator
	logger      *logging.Logger
	maxAttempts int
}

// BookingOption configures the booking agent.
type BookingOption func(*BookingAgent)

// WithMaxAvailabilityAttempts overrides how many failed availability checks
// are tolerated before the booking escalates to a human.
func WithMaxAvailabilityAttempts(n int) BookingOption {
	return func(a *BookingAgent) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// NewBookingAgent wires the slot-filling engine with its injected
// capabilities.
func NewBookingAgent(extractor FieldExtractor, scheduler AvailabilityChecker, tickets TicketCreator, logger *logging.Logger, opts ...BookingOption) *BookingAgent {
	if extractor == nil {
		panic("conversation: extractor cannot be nil")
	}
	if scheduler == nil {
		panic("conversation: scheduler cannot be nil")
	}
	if tickets == nil {
		panic("conversation: ticket creator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	a := &BookingAgent{
		extractor:   extractor,
		scheduler:   scheduler,
		tickets:     tickets,
		logger:      logger,
		maxAttempts: defaultMaxAvailabilityAttempts,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advance runs one turn of the booking flow: extract, merge, then decide.
func (a *BookingAgent) Advance(ctx context.Context, state *ConversationState) TurnResult {
	// Slot-filling has begun, even before any field succeeds.
	if state.Booking.Status == BookingStatusNone {
		state.Booking.Status = BookingStatusInProgress
	}

	// Phase 1 — extraction. Only from a user turn, never from our own output.
	if state.LastTurnIsUser() {
		result, err := a.extractor.ExtractBookingFields(ctx, &state.Booking, state.LastUserMessage())
		switch {
		case err != nil:
			// A missed extraction is not fatal; the next prompt asks again.
			a.logger.Warn("booking field extraction failed, continuing",
				"conversation_id", state.ConversationID,
				"error", err,
			)
		case result.Invalid != nil:
			// Nothing from this call is merged; prior memory is preserved.
			return TurnResult{Message: fmt.Sprintf(invalidFieldMessage,
				SlotLabel(result.Invalid.Slot), result.Invalid.Reason)}
		default:
			state.Booking.Merge(result.Fields)
		}
	}

	// Phase 2 — decision.
	missing := state.Booking.Missing()
	if len(missing) > 0 {
		return TurnResult{Message: a.askFor(&state.Booking, missing[0])}
	}

	desired := state.Booking.DesiredTime
	if a.scheduler.CheckAvailability(ctx, availabilityDayGeneric, desired) {
		msg := fmt.Sprintf(confirmedMessage,
			state.Booking.PetName,
			state.Booking.PetSpecies,
			desired,
			state.Booking.Phone,
			state.Booking.Email,
		)
		a.logger.Info("booking confirmed",
			"conversation_id", state.ConversationID,
			"desired_time", desired,
		)
		state.ResetBooking()
		return TurnResult{Message: msg, Confirmed: true}
	}

	state.RetryCount++
	a.logger.Info("desired time not available",
		"conversation_id", state.ConversationID,
		"desired_time", desired,
		"attempt", state.RetryCount,
	)

	if state.RetryCount >= a.maxAttempts {
		ticketID := a.createTicket(ctx, retryExhaustionSummary(state, desired))
		state.ResetBooking()
		return TurnResult{
			Message:   fmt.Sprintf(retryExhaustedMessage, ticketID),
			Terminate: true,
		}
	}

	// Every other slot stays valid whichever time was rejected, so only the
	// time is re-asked.
	attempt := state.RetryCount
	state.Booking.DesiredTime = ""
	return TurnResult{Message: fmt.Sprintf(unavailableMessage, desired, attempt, a.maxAttempts)}
}

func (a *BookingAgent) askFor(m *BookingMemory, slot Slot) string {
	if m.PetName != "" && slot != SlotPetName {
		return fmt.Sprintf(askFieldForPetMessage, m.PetName, SlotLabel(slot))
	}
	return fmt.Sprintf(askFieldMessage, SlotLabel(slot))
}

func (a *BookingAgent) createTicket(ctx context.Context, summary string) string {
	ticketID, err := a.tickets.CreateTicket(ctx, summary)
	if err != nil {
		a.logger.Error("ticket creation failed during booking escalation", "error", err)
		return ticketUnavailableText
	}
	return ticketID
}

func retryExhaustionSummary(state *ConversationState, lastTime string) string {
	var b strings.Builder
	b.WriteString("Agendamiento fallido tras agotar los intentos de disponibilidad.\n")
	b.WriteString("Contacto: " + state.ContactSummary() + "\n")
	if state.Booking.Reason != "" {
		b.WriteString("Motivo: " + state.Booking.Reason + "\n")
	}
	b.WriteString("Último horario solicitado: " + lastTime)
	return b.String()
}
