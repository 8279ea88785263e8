// internal/worker/control.go
package worker

import (
	"context"
	"encoding/json"

	"urpark-realtime/internal/common/database"
)

// Control is the application-side handle for sending control messages to
// the worker process over the redis control channel.
type Control struct {
	redis   *database.RedisClient
	channel string
}

func NewControl(redis *database.RedisClient, channel string) *Control {
	return &Control{redis: redis, channel: channel}
}

// SkipWaiting asks the installed worker version to take over immediately
// instead of waiting for the old version's pages to close.
func (c *Control) SkipWaiting(ctx context.Context) error {
	data, err := json.Marshal(ControlMessage{Type: ControlSkipWaiting})
	if err != nil {
		return err
	}
	return c.redis.Publish(ctx, c.channel, data)
}
