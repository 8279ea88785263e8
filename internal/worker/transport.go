// internal/worker/transport.go
package worker

import (
	"context"
	"encoding/json"

	"urpark-realtime/internal/common/database"
	"urpark-realtime/internal/common/logger"
)

// RedisSource adapts the push service's redis pub/sub channels into the
// worker's event and control streams. This is the only link between the
// worker process and everything else; there is no shared memory.
type RedisSource struct {
	redis          *database.RedisClient
	eventChannel   string
	clickChannel   string
	controlChannel string
	logger         logger.Logger
}

func NewRedisSource(redis *database.RedisClient, eventChannel, clickChannel, controlChannel string, log logger.Logger) *RedisSource {
	return &RedisSource{
		redis:          redis,
		eventChannel:   eventChannel,
		clickChannel:   clickChannel,
		controlChannel: controlChannel,
		logger:         log.WithFields(map[string]interface{}{"component": "push-transport"}),
	}
}

// Events subscribes to the push event channel and streams raw payloads
// until the context ends.
func (s *RedisSource) Events(ctx context.Context) <-chan []byte {
	out := make(chan []byte)
	sub := s.redis.Subscribe(ctx, s.eventChannel)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Clicks subscribes to the click channel the UI shell reports notification
// interactions on. Unparseable events are logged and skipped.
func (s *RedisSource) Clicks(ctx context.Context) <-chan ClickEvent {
	out := make(chan ClickEvent)
	sub := s.redis.Subscribe(ctx, s.clickChannel)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ev ClickEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.logger.Warn("bad click event", map[string]interface{}{"error": err.Error()})
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Controls subscribes to the application control channel and streams parsed
// control messages. Unparseable messages are logged and skipped.
func (s *RedisSource) Controls(ctx context.Context) <-chan ControlMessage {
	out := make(chan ControlMessage)
	sub := s.redis.Subscribe(ctx, s.controlChannel)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ctl ControlMessage
				if err := json.Unmarshal([]byte(msg.Payload), &ctl); err != nil {
					s.logger.Warn("bad control message", map[string]interface{}{"error": err.Error()})
					continue
				}
				select {
				case out <- ctl:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
