// internal/models/message.go
package models

import "time"

// Message is one chat message inside a conversation. Immutable once created
// except for the Read flag, which the other participant flips via a read
// receipt.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`

	// ClientKey is the client-generated idempotency key attached to an
	// optimistic send. The server echoes it back on the channel so the
	// sender can match its own echo without guessing by sender identity.
	ClientKey string `json:"clientKey,omitempty"`

	// Pending marks an optimistic insert that has not been confirmed by a
	// server echo yet. Never set on messages coming from the server.
	Pending bool `json:"-"`
}

// Participant is the "other user" side of a conversation as seen by the
// requesting user.
type Participant struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Conversation is a two-party thread with a denormalized summary for list
// views. UnreadCount counts messages with Read=false not sent by the
// requesting user.
type Conversation struct {
	ID             string      `json:"id"`
	OtherUser      Participant `json:"otherUser"`
	LastMessage    *Message    `json:"lastMessage,omitempty"`
	UnreadCount    int         `json:"unreadCount"`
	LastActivityAt time.Time   `json:"lastActivityAt"`
}
