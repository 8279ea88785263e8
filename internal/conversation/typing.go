// internal/conversation/typing.go
package conversation

import (
	"context"
	"sync"
	"time"

	"urpark-realtime/internal/common/logger"
)

// TypingNotifier is the slice of the channel the coordinator emits through.
type TypingNotifier interface {
	SetTyping(ctx context.Context, conversationID string, isTyping bool) error
}

// TypingCoordinator derives the debounced "is typing" signal from local
// keystrokes. Every keystroke emits typing=true and re-arms the stop timer;
// typing=false fires at most once per idle gap. Pure debounce, not throttle.
type TypingCoordinator struct {
	channel        TypingNotifier
	conversationID string
	debounce       time.Duration
	logger         logger.Logger

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	typing bool
	closed bool
}

const defaultTypingDebounce = 1000 * time.Millisecond

func NewTypingCoordinator(channel TypingNotifier, conversationID string, debounce time.Duration, log logger.Logger) *TypingCoordinator {
	if debounce <= 0 {
		debounce = defaultTypingDebounce
	}
	return &TypingCoordinator{
		channel:        channel,
		conversationID: conversationID,
		debounce:       debounce,
		logger:         log.WithFields(map[string]interface{}{"component": "typing"}),
	}
}

// Keystroke reports one local keystroke. Emit failures are logged and
// swallowed; the typing signal is ephemeral and never worth a retry.
func (c *TypingCoordinator) Keystroke(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.typing = true
	if c.timer != nil {
		c.timer.Stop()
	}
	// Each keystroke supersedes the previous stop timer. Stop cannot
	// guarantee the old callback hasn't already fired and is waiting on the
	// mutex, so the generation check makes the stale callback a no-op.
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() { c.stopTyping(gen) })
	c.mu.Unlock()

	if err := c.channel.SetTyping(ctx, c.conversationID, true); err != nil {
		c.logger.Debug("typing emit failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *TypingCoordinator) stopTyping(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || !c.typing {
		c.mu.Unlock()
		return
	}
	c.typing = false
	c.mu.Unlock()

	if err := c.channel.SetTyping(context.Background(), c.conversationID, false); err != nil {
		c.logger.Debug("typing emit failed", map[string]interface{}{"error": err.Error()})
	}
}

// Close cancels the pending timer and, when a typing=true is outstanding,
// emits the final typing=false so the peer is not left hanging.
func (c *TypingCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	wasTyping := c.typing
	c.typing = false
	c.mu.Unlock()

	if wasTyping {
		if err := c.channel.SetTyping(context.Background(), c.conversationID, false); err != nil {
			c.logger.Debug("typing emit failed", map[string]interface{}{"error": err.Error()})
		}
	}
}
