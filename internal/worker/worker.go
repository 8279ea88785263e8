// internal/worker/worker.go
package worker

import (
	"context"
	"sync"
	"time"

	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/common/metrics"
	"urpark-realtime/internal/models"
)

// LifecycleState tracks the worker's version lifecycle.
type LifecycleState string

const (
	StateInstalled LifecycleState = "installed"
	StateWaiting   LifecycleState = "waiting"
	StateActive    LifecycleState = "active"
)

// ActionDismiss short-circuits click handling without navigating.
const ActionDismiss = "dismiss"

// ControlMessage is an application-to-worker control envelope.
type ControlMessage struct {
	Type string `json:"type"`
}

// ControlSkipWaiting forces an immediate worker upgrade outside the normal
// lifecycle.
const ControlSkipWaiting = "skipWaiting"

// Notifier renders system notifications. It is the only user-visible
// surface the worker has.
type Notifier interface {
	Display(payload models.PushPayload) error
	Close(tag string) error
}

// Recorder receives per-event processing telemetry.
type Recorder interface {
	RecordEventProcessed(ctx context.Context, status string)
	RecordEventDuration(ctx context.Context, duration time.Duration, status string)
}

// ClickEvent is a user interaction with a displayed notification.
type ClickEvent struct {
	Tag    string                 `json:"tag"`
	Action string                 `json:"action,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// Worker is the background notification delivery process. It runs in its
// own execution context with no shared memory with the application: push
// events arrive from the push service, clicks go back to application
// windows as posted messages.
type Worker struct {
	notifier Notifier
	windows  Windows
	opener   Opener
	defaults Defaults
	logger   logger.Logger
	recorder Recorder

	mu    sync.Mutex
	state LifecycleState
}

func New(notifier Notifier, windows Windows, opener Opener, defaults Defaults, log logger.Logger) *Worker {
	return &Worker{
		notifier: notifier,
		windows:  windows,
		opener:   opener,
		defaults: defaults,
		logger:   log.WithFields(map[string]interface{}{"component": "notify-worker"}),
		state:    StateInstalled,
	}
}

// SetRecorder attaches optional per-event telemetry.
func (w *Worker) SetRecorder(r Recorder) {
	w.recorder = r
}

// Install registers this worker version and forces immediate activation
// rather than waiting for every page under the old version to close.
func (w *Worker) Install() {
	w.mu.Lock()
	w.state = StateWaiting
	w.mu.Unlock()
	w.logger.Info("worker installed, skipping wait", nil)
	w.Activate()
}

// Activate claims all open windows so this worker version handles in-flight
// pages immediately.
func (w *Worker) Activate() {
	w.mu.Lock()
	w.state = StateActive
	w.mu.Unlock()
	w.windows.Claim()
	w.logger.Info("worker active, windows claimed", nil)
}

// State returns the lifecycle state.
func (w *Worker) State() LifecycleState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// HandlePush parses a raw push event and always displays a notification.
// Malformed payloads degrade to defaults; nothing is silently dropped.
func (w *Worker) HandlePush(ctx context.Context, raw []byte) error {
	metrics.PushEventsReceived.Inc()
	start := time.Now()

	payload := ParsePayload(raw, w.defaults, w.logger)

	if err := w.notifier.Display(payload); err != nil {
		w.logger.Error("notification display failed", map[string]interface{}{
			"tag":   payload.Tag,
			"error": err.Error(),
		})
		w.record(ctx, start, "error")
		return err
	}

	metrics.NotificationsDisplayed.WithLabelValues(payload.Tag).Inc()
	w.record(ctx, start, "displayed")
	return nil
}

func (w *Worker) record(ctx context.Context, start time.Time, status string) {
	if w.recorder == nil {
		return
	}
	w.recorder.RecordEventProcessed(ctx, status)
	w.recorder.RecordEventDuration(ctx, time.Since(start), status)
}

// HandleClick closes the clicked notification and delivers the navigation
// target to the application: posted to an existing window (then focused),
// or a new window when none is open. A named dismiss action short-circuits
// without navigating.
func (w *Worker) HandleClick(ctx context.Context, ev ClickEvent) error {
	if err := w.notifier.Close(ev.Tag); err != nil {
		w.logger.Warn("notification close failed", map[string]interface{}{"error": err.Error()})
	}

	if ev.Action == ActionDismiss {
		return nil
	}

	metrics.NotificationClicks.WithLabelValues(ev.Tag).Inc()

	url := Route(models.ParseNotificationType(ev.Tag), ev.Data)

	open := w.windows.List()
	if len(open) > 0 {
		win := open[0]
		if err := win.Post(WindowMessage{
			Type: MessageTypeNotificationClicked,
			URL:  url,
			Data: ev.Data,
		}); err != nil {
			return err
		}
		if err := win.Focus(); err != nil {
			w.logger.Warn("window focus failed", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}

	return w.opener.OpenWindow(url)
}

// HandleControl processes an application control message.
func (w *Worker) HandleControl(msg ControlMessage) {
	switch msg.Type {
	case ControlSkipWaiting:
		w.mu.Lock()
		waiting := w.state == StateWaiting
		w.mu.Unlock()
		if waiting {
			w.Activate()
		}
	default:
		w.logger.Debug("unknown control message", map[string]interface{}{"type": msg.Type})
	}
}

// Run consumes push events, click events and control messages until the
// context ends.
func (w *Worker) Run(ctx context.Context, events <-chan []byte, clicks <-chan ClickEvent, controls <-chan ControlMessage) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				return
			}
			if err := w.HandlePush(ctx, raw); err != nil {
				w.logger.Error("push handling failed", map[string]interface{}{"error": err.Error()})
			}
		case ev, ok := <-clicks:
			if !ok {
				return
			}
			if err := w.HandleClick(ctx, ev); err != nil {
				w.logger.Error("click handling failed", map[string]interface{}{"error": err.Error()})
			}
		case msg, ok := <-controls:
			if !ok {
				return
			}
			w.HandleControl(msg)
		}
	}
}
