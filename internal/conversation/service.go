package conversation

import (
	"context"
	"time"
)

// Service describes how the conversation engine behaves toward its callers
// (HTTP handlers, the queue orchestrator, the CLI).
type Service interface {
	StartConversation(ctx context.Context, req StartRequest) (*Response, error)
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, conversationID string) ([]Message, error)
}

// Message represents a single message in a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Channel identifies which transport the conversation is happening on.
type Channel string

const (
	ChannelUnknown Channel = ""
	ChannelWeb     Channel = "web"
	ChannelCLI     Channel = "cli"
)

// StartRequest opens a new conversation.
type StartRequest struct {
	ConversationID string            `json:"conversation_id,omitempty"`
	Channel        Channel           `json:"channel,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// MessageRequest is a single user turn in an existing conversation.
type MessageRequest struct {
	ConversationID string            `json:"conversation_id"`
	Message        string            `json:"message"`
	Channel        Channel           `json:"channel,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Response is the DTO returned to the API layer after each turn.
type Response struct {
	ConversationID string      `json:"conversation_id"`
	Message        string      `json:"message"`
	Destination    Destination `json:"destination,omitempty"`
	Terminated     bool        `json:"terminated,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}
