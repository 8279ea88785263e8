// internal/worker/bridge_test.go
package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"urpark-realtime/internal/common/database"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUIChannel = "urpark:ui"

func newTestBridge(t *testing.T) (*UIBridge, *database.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = client.Close() })
	return NewUIBridge(client, testUIChannel, "v3", logger.NewTestLogger(t)), client
}

// collectOne subscribes to a channel and returns the first message published
// after the subscription is live.
func collectOne(t *testing.T, client *database.RedisClient, channel string, trigger func()) map[string]interface{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription handshake")

	trigger()

	select {
	case msg := <-sub.Channel():
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &decoded))
		return decoded
	case <-time.After(2 * time.Second):
		t.Fatal("no ui command received")
		return nil
	}
}

func TestUIBridge_Display(t *testing.T) {
	bridge, client := newTestBridge(t)

	got := collectOne(t, client, testUIChannel, func() {
		require.NoError(t, bridge.Display(models.PushPayload{Title: "T", Tag: "new-message"}))
	})

	assert.Equal(t, "showNotification", got["type"])
	payload := got["payload"].(map[string]interface{})
	assert.Equal(t, "T", payload["title"])
	assert.Equal(t, "new-message", payload["tag"])
}

func TestUIBridge_CloseAndOpenWindow(t *testing.T) {
	bridge, client := newTestBridge(t)

	got := collectOne(t, client, testUIChannel, func() {
		require.NoError(t, bridge.Close("booking-confirmed"))
	})
	assert.Equal(t, "closeNotification", got["type"])
	assert.Equal(t, "booking-confirmed", got["tag"])

	got = collectOne(t, client, testUIChannel, func() {
		require.NoError(t, bridge.OpenWindow("/messages/c1"))
	})
	assert.Equal(t, "openWindow", got["type"])
	assert.Equal(t, "/messages/c1", got["url"])
}

func TestUIBridge_ListReflectsWindowRegistry(t *testing.T) {
	bridge, client := newTestBridge(t)
	ctx := context.Background()

	assert.Empty(t, bridge.List())

	require.NoError(t, client.Client.SAdd(ctx, windowsSetKey, "w1", "w2").Err())
	assert.Len(t, bridge.List(), 2)
}

func TestUIBridge_WindowPostTargetsPrivateChannel(t *testing.T) {
	bridge, client := newTestBridge(t)
	ctx := context.Background()

	require.NoError(t, client.Client.SAdd(ctx, windowsSetKey, "w1").Err())
	windows := bridge.List()
	require.Len(t, windows, 1)

	got := collectOne(t, client, "urpark:window:w1", func() {
		require.NoError(t, windows[0].Post(WindowMessage{
			Type: MessageTypeNotificationClicked,
			URL:  "/bookings",
		}))
	})
	assert.Equal(t, MessageTypeNotificationClicked, got["type"])
	assert.Equal(t, "/bookings", got["url"])

	got = collectOne(t, client, "urpark:window:w1", func() {
		require.NoError(t, windows[0].Focus())
	})
	assert.Equal(t, "focus", got["type"])
}

func TestUIBridge_ClaimRecordsController(t *testing.T) {
	bridge, client := newTestBridge(t)

	bridge.Claim()

	got, err := client.Client.Get(context.Background(), controllerKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "v3", got)
}
