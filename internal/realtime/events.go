// internal/realtime/events.go
package realtime

import "encoding/json"

// Envelope is the wire format for every channel event, both directions.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound event names.
const (
	eventJoinConversation  = "joinConversation"
	eventLeaveConversation = "leaveConversation"
	eventSendMessage       = "sendMessage"
	eventSetTyping         = "setTyping"
	eventMarkRead          = "markRead"
)

// Inbound event names.
const (
	eventNewMessage   = "newMessage"
	eventUserTyping   = "userTyping"
	eventMessagesRead = "messagesRead"
)

// command is a client-to-server envelope before marshalling.
type command struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// sendMessagePayload carries an outbound message send request.
type sendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	ClientKey      string `json:"clientKey,omitempty"`
}

// setTypingPayload broadcasts the ephemeral typing signal.
type setTypingPayload struct {
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

type roomPayload struct {
	ConversationID string `json:"conversationId"`
}

// TypingEvent is the inbound peer typing signal.
type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// ReadEvent signals that the peer read this user's messages.
type ReadEvent struct {
	ConversationID string `json:"conversationId"`
}
