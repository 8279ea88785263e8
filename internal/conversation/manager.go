// internal/conversation/manager.go
package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"urpark-realtime/internal/common/errors"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/common/metrics"
	"urpark-realtime/internal/models"
	"urpark-realtime/internal/realtime"

	"github.com/google/uuid"
)

// State is the lifecycle of one open conversation view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"

	// StateFailed drives the generic inline error banner. Connectivity
	// failures on the channel never reach this state; only a failed REST
	// fetch does.
	StateFailed State = "failed"
)

const historyPageSize = 50

// Channel is the slice of the realtime client the manager depends on.
type Channel interface {
	Connected() bool
	JoinConversation(ctx context.Context, conversationID string) error
	LeaveConversation(ctx context.Context, conversationID string) error
	SendMessage(ctx context.Context, conversationID, content, clientKey string) error
	MarkRead(ctx context.Context, conversationID string) error
	OnNewMessage(h func(models.Message))
	OnUserTyping(h func(realtime.TypingEvent))
	OnMessagesRead(h func(realtime.ReadEvent))
}

// HistoryAPI is the slice of the REST client the manager depends on.
type HistoryAPI interface {
	GetMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID, content, clientKey string) (*models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID string) error
}

// Manager owns the ordered message list for one open conversation. It merges
// channel events with REST-fetched history and drives optimistic send, so
// the view never waits on the network to show the user's own message.
type Manager struct {
	conversationID string
	userID         string

	api     HistoryAPI
	channel Channel
	logger  logger.Logger

	typingExpiry time.Duration
	now          func() time.Time

	mu              sync.Mutex
	state           State
	messages        []models.Message
	peerName        string
	peerTypingUntil time.Time
	closed          bool
}

// Option tweaks a Manager, mostly for tests.
type Option func(*Manager)

// WithTypingExpiry overrides the receiver-side typing flag lifetime.
func WithTypingExpiry(d time.Duration) Option {
	return func(m *Manager) { m.typingExpiry = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(conversationID, userID string, api HistoryAPI, channel Channel, log logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		conversationID: conversationID,
		userID:         userID,
		api:            api,
		channel:        channel,
		logger: log.WithFields(map[string]interface{}{
			"component":      "conversation",
			"conversationId": conversationID,
		}),
		typingExpiry: 5 * time.Second,
		state:        StateIdle,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	channel.OnNewMessage(m.handleNewMessage)
	channel.OnUserTyping(m.handleUserTyping)
	channel.OnMessagesRead(m.handleMessagesRead)

	return m
}

// Open loads history, derives the peer's display name and marks the
// conversation read. The room join goes over the channel; the mark-as-read
// falls back to REST when the channel is down.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateLoading {
		m.mu.Unlock()
		return nil
	}
	m.state = StateLoading
	m.mu.Unlock()

	history, err := m.api.GetMessages(ctx, m.conversationID, 1, historyPageSize)
	if err != nil {
		m.mu.Lock()
		m.state = StateFailed
		m.mu.Unlock()
		return errors.NewFetchFailedError("message history", err)
	}

	m.mu.Lock()
	m.messages = history
	sortMessages(m.messages)
	m.peerName = derivePeerName(m.messages, m.userID)
	m.state = StateLoaded
	m.mu.Unlock()

	if err := m.channel.JoinConversation(ctx, m.conversationID); err != nil {
		m.logger.Warn("room join failed", map[string]interface{}{"error": err.Error()})
	}

	if m.channel.Connected() {
		if err := m.channel.MarkRead(ctx, m.conversationID); err != nil {
			m.logger.Warn("channel mark-read failed", map[string]interface{}{"error": err.Error()})
		}
	} else if err := m.api.MarkConversationRead(ctx, m.conversationID); err != nil {
		m.logger.Warn("rest mark-read failed", map[string]interface{}{"error": err.Error()})
	}

	return nil
}

// Send validates and sends a message. The optimistic copy is inserted before
// any network I/O; if the channel is down the send goes over REST and the
// history is refetched.
func (m *Manager) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.NewEmptyContentError()
	}

	key := uuid.New().String()
	optimistic := models.Message{
		ID:             key, // replaced by the authoritative id on echo
		ConversationID: m.conversationID,
		SenderID:       m.userID,
		Content:        content,
		CreatedAt:      m.now(),
		ClientKey:      key,
		Pending:        true,
	}

	m.mu.Lock()
	m.messages = append(m.messages, optimistic)
	m.mu.Unlock()

	if m.channel.Connected() {
		if err := m.channel.SendMessage(ctx, m.conversationID, content, key); err == nil {
			return nil
		}
		// Fall through to the REST path; the emit is not retried.
	}

	return m.sendViaREST(ctx, content, key)
}

func (m *Manager) sendViaREST(ctx context.Context, content, clientKey string) error {
	if _, err := m.api.SendMessage(ctx, m.conversationID, content, clientKey); err != nil {
		return errors.NewSendFailedError("rest fallback", err)
	}
	metrics.MessagesSent.WithLabelValues("rest").Inc()

	history, err := m.api.GetMessages(ctx, m.conversationID, 1, historyPageSize)
	if err != nil {
		// The send itself succeeded; a failed refetch only delays
		// reconciliation until the next fetch.
		m.logger.Warn("refetch after fallback send failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	m.mu.Lock()
	m.mergeHistory(history)
	m.mu.Unlock()
	return nil
}

// mergeHistory replaces the list with the authoritative history, keeping
// any optimistic message whose ClientKey the server has not echoed yet.
// Caller holds m.mu.
func (m *Manager) mergeHistory(history []models.Message) {
	echoed := make(map[string]struct{}, len(history))
	for _, msg := range history {
		if msg.ClientKey != "" {
			echoed[msg.ClientKey] = struct{}{}
		}
	}

	merged := history
	for _, msg := range m.messages {
		if msg.Pending {
			if _, ok := echoed[msg.ClientKey]; !ok {
				merged = append(merged, msg)
			}
		}
	}
	sortMessages(merged)
	m.messages = merged
}

// handleNewMessage reconciles an inbound channel event with the local list.
// Matching is by the echoed ClientKey; sender-equality filtering remains
// only for echoes that carry no key. No reconciliation across the
// channel/REST boundary beyond this is attempted, which is a known
// limitation under packet reordering.
func (m *Manager) handleNewMessage(msg models.Message) {
	if msg.ConversationID != m.conversationID {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	if msg.ClientKey != "" {
		for i := range m.messages {
			if m.messages[i].ClientKey == msg.ClientKey {
				// Our own echo: adopt the authoritative id and timestamp.
				msg.Pending = false
				m.messages[i] = msg
				sortMessages(m.messages)
				return
			}
		}
		if msg.SenderID == m.userID {
			// Echo for a send this view no longer tracks (e.g. after a
			// reload). Drop rather than duplicate.
			return
		}
	} else if msg.SenderID == m.userID {
		return
	}

	m.messages = append(m.messages, msg)
	sortMessages(m.messages)
}

func (m *Manager) handleUserTyping(ev realtime.TypingEvent) {
	if ev.ConversationID != m.conversationID || ev.UserID == m.userID {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if ev.IsTyping {
		m.peerTypingUntil = m.now().Add(m.typingExpiry)
	} else {
		m.peerTypingUntil = time.Time{}
	}
}

func (m *Manager) handleMessagesRead(ev realtime.ReadEvent) {
	if ev.ConversationID != m.conversationID {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	for i := range m.messages {
		if m.messages[i].SenderID == m.userID {
			m.messages[i].Read = true
		}
	}
}

// Close leaves the room and detaches this manager from channel events. All
// subsequent events for this conversation are dropped, so a torn-down view
// cannot receive stale updates.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.state = StateIdle
	m.mu.Unlock()

	if err := m.channel.LeaveConversation(ctx, m.conversationID); err != nil {
		m.logger.Warn("room leave failed", map[string]interface{}{"error": err.Error()})
	}
}

// --- Accessors ---

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Messages returns a copy of the ordered message list.
func (m *Manager) Messages() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Groups returns the message list bucketed by calendar date for rendering.
func (m *Manager) Groups() []MessageGroup {
	return GroupByDate(m.Messages(), m.now())
}

// PeerName is the other participant's display name, derived from the first
// message they sent. Empty until such a message exists.
func (m *Manager) PeerName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerName
}

// PeerTyping reports whether the peer's typing flag is still live. The flag
// carries an expiry deadline, so a peer that disconnects mid-typing cannot
// leave the indicator stuck on.
func (m *Manager) PeerTyping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.peerTypingUntil.IsZero() && m.now().Before(m.peerTypingUntil)
}

// sortMessages orders by creation time non-decreasing; equal timestamps
// keep their insertion order.
func sortMessages(msgs []models.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

// derivePeerName finds the display name from the first message not authored
// by the requesting user.
func derivePeerName(msgs []models.Message, userID string) string {
	for _, msg := range msgs {
		if msg.SenderID != userID {
			return msg.SenderName
		}
	}
	return ""
}
