// internal/realtime/client.go
package realtime

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"urpark-realtime/internal/common/errors"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/common/metrics"
	"urpark-realtime/internal/models"

	"nhooyr.io/websocket"
)

// State represents the channel connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Options configures the channel client.
type Options struct {
	// URL is the http(s) endpoint of the realtime gateway; it is rewritten
	// to ws(s) at dial time.
	URL                  string
	Token                string
	AutoReconnect        bool
	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	MaxReconnectAttempts int
}

// Client is the single shared duplex channel used by every open
// conversation. It tracks joined rooms and replays the joins after each
// reconnect, so a connectivity blip cannot silently drop room membership.
type Client struct {
	opts   Options
	logger logger.Logger

	mu               sync.Mutex
	conn             *websocket.Conn
	state            State
	intentionalClose bool
	cancelFn         context.CancelFunc

	// rooms is the set of conversation ids this client has joined and not
	// yet left. Replayed on every transition to connected.
	rooms map[string]struct{}

	recon *reconnector

	handlersMu     sync.RWMutex
	onNewMessage   []func(models.Message)
	onUserTyping   []func(TypingEvent)
	onMessagesRead []func(ReadEvent)
	onConnected    []func()
	onDisconnected []func(reason string)
}

func NewClient(opts Options, log logger.Logger) *Client {
	return &Client{
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"component": "realtime"}),
		state:  StateDisconnected,
		rooms:  make(map[string]struct{}),
		recon:  newReconnector(opts.ReconnectBaseDelay, opts.ReconnectMaxDelay, opts.MaxReconnectAttempts),
	}
}

// --- Handler registration ---

func (c *Client) OnNewMessage(h func(models.Message)) {
	c.handlersMu.Lock()
	c.onNewMessage = append(c.onNewMessage, h)
	c.handlersMu.Unlock()
}

func (c *Client) OnUserTyping(h func(TypingEvent)) {
	c.handlersMu.Lock()
	c.onUserTyping = append(c.onUserTyping, h)
	c.handlersMu.Unlock()
}

func (c *Client) OnMessagesRead(h func(ReadEvent)) {
	c.handlersMu.Lock()
	c.onMessagesRead = append(c.onMessagesRead, h)
	c.handlersMu.Unlock()
}

func (c *Client) OnConnected(h func()) {
	c.handlersMu.Lock()
	c.onConnected = append(c.onConnected, h)
	c.handlersMu.Unlock()
}

func (c *Client) OnDisconnected(h func(reason string)) {
	c.handlersMu.Lock()
	c.onDisconnected = append(c.onDisconnected, h)
	c.handlersMu.Unlock()
}

// DetachHandlers drops every registered handler. Called when the last
// conversation view is torn down so stale UI updates cannot reach it.
func (c *Client) DetachHandlers() {
	c.handlersMu.Lock()
	c.onNewMessage = nil
	c.onUserTyping = nil
	c.onMessagesRead = nil
	c.onConnected = nil
	c.onDisconnected = nil
	c.handlersMu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether emits will go over the channel right now.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Connect establishes the channel. Idempotent: calling it while connected
// or connecting is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	c.intentionalClose = false
	c.mu.Unlock()

	wsURL := strings.Replace(c.opts.URL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	if c.opts.Token != "" {
		wsURL += "?token=" + c.opts.Token
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		return errors.NewChannelUnavailableError(err.Error())
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancelFn != nil {
		c.cancelFn()
	}
	c.conn = conn
	c.state = StateConnected
	c.cancelFn = cancel
	c.mu.Unlock()
	c.recon.markConnected()

	c.rejoinRooms(connCtx)
	c.emitConnected()

	go c.readLoop(connCtx, conn)

	return nil
}

// Disconnect closes the channel for good; no reconnect is attempted.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.intentionalClose = true
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.recon.reset()

	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client disconnect")
	}
	return nil
}

// JoinConversation scopes subsequent events to the conversation's room and
// remembers the membership for replay after a reconnect.
func (c *Client) JoinConversation(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	c.rooms[conversationID] = struct{}{}
	c.mu.Unlock()
	return c.send(ctx, command{Event: eventJoinConversation, Payload: roomPayload{ConversationID: conversationID}})
}

// LeaveConversation exits the room and forgets the membership.
func (c *Client) LeaveConversation(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	delete(c.rooms, conversationID)
	c.mu.Unlock()
	return c.send(ctx, command{Event: eventLeaveConversation, Payload: roomPayload{ConversationID: conversationID}})
}

// SendMessage requests a send over the channel. Fire-and-forget: a failed
// emit is not retried here, the conversation manager falls back to REST.
func (c *Client) SendMessage(ctx context.Context, conversationID, content, clientKey string) error {
	err := c.send(ctx, command{Event: eventSendMessage, Payload: sendMessagePayload{
		ConversationID: conversationID,
		Content:        content,
		ClientKey:      clientKey,
	}})
	if err == nil {
		metrics.MessagesSent.WithLabelValues("channel").Inc()
	}
	return err
}

// SetTyping broadcasts the ephemeral typing signal.
func (c *Client) SetTyping(ctx context.Context, conversationID string, isTyping bool) error {
	return c.send(ctx, command{Event: eventSetTyping, Payload: setTypingPayload{
		ConversationID: conversationID,
		IsTyping:       isTyping,
	}})
}

// MarkRead issues a read receipt for every unread peer message.
func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	return c.send(ctx, command{Event: eventMarkRead, Payload: roomPayload{ConversationID: conversationID}})
}

func (c *Client) send(ctx context.Context, cmd command) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if conn == nil || !connected {
		return errors.NewChannelUnavailableError("emit " + cmd.Event)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return errors.NewChannelUnavailableError(err.Error())
	}
	return nil
}

// rejoinRooms replays joinConversation for every active room. Without this,
// room membership would be silently lost across a reconnect and the view
// would stop receiving events.
func (c *Client) rejoinRooms(ctx context.Context) {
	c.mu.Lock()
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	c.mu.Unlock()

	for _, id := range rooms {
		if err := c.send(ctx, command{Event: eventJoinConversation, Payload: roomPayload{ConversationID: id}}); err != nil {
			c.logger.Warn("room rejoin failed", map[string]interface{}{
				"conversationId": id,
				"error":          err.Error(),
			})
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			c.mu.Lock()
			intentional := c.intentionalClose
			if c.conn == conn {
				c.conn = nil
				c.state = StateDisconnected
			}
			c.mu.Unlock()

			if intentional {
				return
			}

			c.emitDisconnected(err.Error())

			if c.opts.AutoReconnect && c.recon.shouldReconnect() {
				c.scheduleReconnect(ctx)
			}
			return
		}

		var env Envelope
		if json.Unmarshal(data, &env) != nil {
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env Envelope) {
	c.handlersMu.RLock()
	defer c.handlersMu.RUnlock()

	switch env.Event {
	case eventNewMessage:
		var msg models.Message
		if json.Unmarshal(env.Payload, &msg) == nil {
			for _, h := range c.onNewMessage {
				h(msg)
			}
		}
	case eventUserTyping:
		var ev TypingEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			for _, h := range c.onUserTyping {
				h(ev)
			}
		}
	case eventMessagesRead:
		var ev ReadEvent
		if json.Unmarshal(env.Payload, &ev) == nil {
			for _, h := range c.onMessagesRead {
				h(ev)
			}
		}
	}
}

func (c *Client) emitConnected() {
	c.handlersMu.RLock()
	handlers := append([]func(){}, c.onConnected...)
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h()
	}
}

func (c *Client) emitDisconnected(reason string) {
	c.handlersMu.RLock()
	handlers := append([]func(string){}, c.onDisconnected...)
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(reason)
	}
}

func (c *Client) scheduleReconnect(ctx context.Context) {
	delay := c.recon.nextDelay()
	c.mu.Lock()
	c.state = StateReconnecting
	c.mu.Unlock()

	metrics.ChannelReconnects.Inc()
	c.logger.Info("channel reconnecting", map[string]interface{}{
		"attempt": c.recon.attempts(),
		"delay":   delay.String(),
	})

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	if err := c.Connect(context.Background()); err != nil {
		if c.opts.AutoReconnect && c.recon.shouldReconnect() {
			c.scheduleReconnect(ctx)
		}
	}
}
