package webchat

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vetcareai/vetcare-platform/internal/conversation"
	"github.com/vetcareai/vetcare-platform/pkg/logging"
)

// Handler bridges browser WebSocket sessions to the conversation service.
// Each WebSocket connection maps to one conversation: the visitor's messages
// are processed synchronously and the assistant reply is pushed back on the
// same connection.
type Handler struct {
	svc      conversation.Service
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type           string `json:"type"` // "message", "session", "pong", "error"
	Role           string `json:"role,omitempty"`
	Text           string `json:"text,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Terminated     bool   `json:"terminated,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// NewHandler creates a web chat handler.
func NewHandler(svc conversation.Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("webchat: conversation service is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:    svc,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The widget is embedded on clinic websites; CORS is enforced
			// at the HTTP layer for the REST API, the socket itself is open.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and runs the chat session loop.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("webchat: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	convID := r.URL.Query().Get("conversation")

	if convID == "" {
		resp, err := h.svc.StartConversation(ctx, conversation.StartRequest{Channel: conversation.ChannelWeb})
		if err != nil {
			h.logger.Error("webchat: start conversation failed", "error", err)
			_ = conn.WriteJSON(OutboundMessage{Type: "error", Text: "No se pudo iniciar la conversación."})
			return
		}
		convID = resp.ConversationID
		_ = conn.WriteJSON(OutboundMessage{Type: "session", ConversationID: convID})
		h.send(conn, resp)
	} else {
		_ = conn.WriteJSON(OutboundMessage{Type: "session", ConversationID: convID})
		h.sendHistory(conn, r, convID)
	}

	h.logger.Info("webchat: connection opened", "conversation_id", convID)

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("webchat: connection closed", "conversation_id", convID, "error", err)
			return
		}

		switch {
		case msg.Type == "ping":
			_ = conn.WriteJSON(OutboundMessage{Type: "pong"})
		case msg.Type == "message" && strings.TrimSpace(msg.Text) != "":
			resp, err := h.svc.ProcessMessage(ctx, conversation.MessageRequest{
				ConversationID: convID,
				Message:        msg.Text,
				Channel:        conversation.ChannelWeb,
			})
			if err != nil {
				h.logger.Error("webchat: process message failed", "conversation_id", convID, "error", err)
				_ = conn.WriteJSON(OutboundMessage{Type: "error", Text: "Ocurrió un problema al procesar tu mensaje. Inténtalo de nuevo."})
				continue
			}
			h.send(conn, resp)
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, resp *conversation.Response) {
	_ = conn.WriteJSON(OutboundMessage{
		Type:       "message",
		Role:       "assistant",
		Text:       resp.Message,
		Terminated: resp.Terminated,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) sendHistory(conn *websocket.Conn, r *http.Request, convID string) {
	msgs, err := h.svc.GetHistory(r.Context(), convID)
	if err != nil {
		return
	}
	for _, m := range msgs {
		_ = conn.WriteJSON(OutboundMessage{
			Type: "message",
			Role: m.Role,
			Text: m.Content,
		})
	}
}

// HandlePage serves the standalone chat page.
func (h *Handler) HandlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(chatPage))
}
