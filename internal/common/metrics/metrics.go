// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total number of messages sent, by delivery path",
		},
		[]string{"path"}, // "channel" or "rest"
	)

	ChannelReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "channel_reconnects_total",
			Help: "Total number of realtime channel reconnect attempts",
		},
	)

	PushEventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_events_received_total",
			Help: "Total number of push events received by the worker",
		},
	)

	NotificationsDisplayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_displayed_total",
			Help: "Total number of system notifications displayed, by tag",
		},
		[]string{"tag"},
	)

	NotificationClicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_clicks_total",
			Help: "Total number of notification clicks handled, by tag",
		},
		[]string{"tag"},
	)

	MutationSyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mutation_sync_failures_total",
			Help: "Fire-and-forget mutations whose server call failed",
		},
		[]string{"operation"},
	)
)
