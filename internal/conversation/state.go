package conversation

import "strings"

// ConversationState is the per-conversation record threaded through every
// turn. It is owned by the engine; handlers receive it and mutate only the
// parts their contract allows.
type ConversationState struct {
	ConversationID string `json:"conversation_id"`

	// History is append-only; entries are never reordered or deleted.
	History []ChatMessage `json:"history"`

	// Booking accumulates appointment slots across turns.
	Booking BookingMemory `json:"booking"`

	// RetryCount counts consecutive failed availability checks for the
	// current booking. It is reset to 0 whenever Booking is cleared and is
	// meaningful only while Booking is non-empty.
	RetryCount int `json:"retry_count"`

	// PendingDestination is set by the router and consumed by the engine
	// within the same turn. Never persisted.
	PendingDestination Destination `json:"-"`
}

// NewConversationState creates an empty state for a fresh session.
func NewConversationState(conversationID string) *ConversationState {
	return &ConversationState{ConversationID: conversationID}
}

// AppendUser appends a user turn to the transcript.
func (s *ConversationState) AppendUser(text string) {
	s.History = append(s.History, ChatMessage{Role: ChatRoleUser, Content: text})
}

// AppendAssistant appends an assistant turn to the transcript.
func (s *ConversationState) AppendAssistant(text string) {
	s.History = append(s.History, ChatMessage{Role: ChatRoleAssistant, Content: text})
}

// LastUserMessage returns the text of the most recent user turn, or "".
func (s *ConversationState) LastUserMessage() string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == ChatRoleUser {
			return s.History[i].Content
		}
	}
	return ""
}

// LastTurnIsUser reports whether the transcript ends with a user turn.
// Extraction only runs in that case, so the engine never re-extracts fields
// from its own output.
func (s *ConversationState) LastTurnIsUser() bool {
	if len(s.History) == 0 {
		return false
	}
	return s.History[len(s.History)-1].Role == ChatRoleUser
}

// ResetBooking clears the booking memory and its retry counter together.
// This is the only sanctioned way to close a booking (confirmation,
// cancellation, or escalation).
func (s *ConversationState) ResetBooking() {
	s.Booking.Clear()
	s.RetryCount = 0
}

// ContactSummary formats the known contact slots for human handoff notes.
func (s *ConversationState) ContactSummary() string {
	parts := make([]string, 0, 4)
	if s.Booking.OwnerName != "" {
		parts = append(parts, "nombre: "+s.Booking.OwnerName)
	}
	if s.Booking.Phone != "" {
		parts = append(parts, "teléfono: "+s.Booking.Phone)
	}
	if s.Booking.Email != "" {
		parts = append(parts, "email: "+s.Booking.Email)
	}
	if s.Booking.PetName != "" {
		parts = append(parts, "mascota: "+s.Booking.PetName)
	}
	if len(parts) == 0 {
		return "sin datos de contacto"
	}
	return strings.Join(parts, ", ")
}
