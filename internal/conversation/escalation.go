package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

const escalationMessage = "Entiendo tu situación. He generado un ticket de atención urgente con ID **%s**. Un especialista humano te contactará a la brevedad."

// EscalationAgent hands a conversation off to a human operator via the
// ticketing capability.
type EscalationAgent struct {
	tickets TicketCreator
	logger  *logging.Logger
}

// NewEscalationAgent creates the human-handoff handler.
func NewEscalationAgent(tickets TicketCreator, logger *logging.Logger) *EscalationAgent {
	if tickets == nil {
		panic("conversation: ticket creator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationAgent{tickets: tickets, logger: logger}
}

// Escalate creates a ticket from the conversation context and returns the
// fixed acknowledgment embedding its ID. Any escalation-triggering transient
// state is cleared so the next turn starts fresh.
func (a *EscalationAgent) Escalate(ctx context.Context, state *ConversationState) TurnResult {
	ticketID, err := a.tickets.CreateTicket(ctx, escalationSummary(state))
	if err != nil {
		a.logger.Error("ticket creation failed during escalation",
			"conversation_id", state.ConversationID,
			"error", err,
		)
		ticketID = ticketUnavailableText
	}

	a.logger.Info("conversation escalated to human",
		"conversation_id", state.ConversationID,
		"ticket_id", ticketID,
	)

	state.ResetBooking()
	return TurnResult{Message: fmt.Sprintf(escalationMessage, ticketID)}
}

func escalationSummary(state *ConversationState) string {
	var b strings.Builder
	b.WriteString("Escalamiento solicitado desde el asistente.\n")
	b.WriteString("Contacto: " + state.ContactSummary() + "\n")
	if last := state.LastUserMessage(); last != "" {
		b.WriteString("Último mensaje del cliente: " + last)
	}
	return b.String()
}
