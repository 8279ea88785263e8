// internal/worker/bridge.go
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"urpark-realtime/internal/common/database"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/models"
)

// UI command types published on the bridge channels.
const (
	uiShowNotification  = "showNotification"
	uiCloseNotification = "closeNotification"
	uiOpenWindow        = "openWindow"
	uiFocus             = "focus"
)

// windowsSetKey holds the ids of currently open application windows; each
// window registers itself on open and removes itself on close.
const windowsSetKey = "urpark:windows"

// controllerKey records which worker version currently controls the open
// windows.
const controllerKey = "urpark:worker:controller"

// UIBridge is the worker's only surface toward the user and the open
// application windows. Everything crosses redis as structured messages; the
// worker owns no window and shares no memory with the application shell.
type UIBridge struct {
	redis     *database.RedisClient
	uiChannel string
	version   string
	logger    logger.Logger
}

func NewUIBridge(redis *database.RedisClient, uiChannel, version string, log logger.Logger) *UIBridge {
	return &UIBridge{
		redis:     redis,
		uiChannel: uiChannel,
		version:   version,
		logger:    log.WithFields(map[string]interface{}{"component": "ui-bridge"}),
	}
}

func (b *UIBridge) publish(channel string, cmd interface{}) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return b.redis.Publish(context.Background(), channel, data)
}

// --- Notifier ---

func (b *UIBridge) Display(payload models.PushPayload) error {
	return b.publish(b.uiChannel, map[string]interface{}{
		"type":    uiShowNotification,
		"payload": payload,
	})
}

func (b *UIBridge) Close(tag string) error {
	return b.publish(b.uiChannel, map[string]interface{}{
		"type": uiCloseNotification,
		"tag":  tag,
	})
}

// --- Opener ---

func (b *UIBridge) OpenWindow(url string) error {
	return b.publish(b.uiChannel, map[string]interface{}{
		"type": uiOpenWindow,
		"url":  url,
	})
}

// --- Windows ---

// List returns a Window handle per registered open window.
func (b *UIBridge) List() []Window {
	ids, err := b.redis.Client.SMembers(context.Background(), windowsSetKey).Result()
	if err != nil {
		b.logger.Warn("window registry query failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	windows := make([]Window, 0, len(ids))
	for _, id := range ids {
		windows = append(windows, &bridgeWindow{bridge: b, id: id})
	}
	return windows
}

// Claim records this worker version as the controller of all open windows.
func (b *UIBridge) Claim() {
	if err := b.redis.Client.Set(context.Background(), controllerKey, b.version, 0).Err(); err != nil {
		b.logger.Warn("window claim failed", map[string]interface{}{"error": err.Error()})
	}
}

// bridgeWindow addresses one open window through its private channel.
type bridgeWindow struct {
	bridge *UIBridge
	id     string
}

func windowChannel(id string) string {
	return fmt.Sprintf("urpark:window:%s", id)
}

func (w *bridgeWindow) Post(msg WindowMessage) error {
	return w.bridge.publish(windowChannel(w.id), msg)
}

func (w *bridgeWindow) Focus() error {
	return w.bridge.publish(windowChannel(w.id), map[string]interface{}{"type": uiFocus})
}
