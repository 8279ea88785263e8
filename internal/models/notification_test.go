// internal/models/notification_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotificationType(t *testing.T) {
	tests := []struct {
		tag  string
		want NotificationType
	}{
		{tag: "booking-confirmed", want: TypeBookingConfirmed},
		{tag: "booking-cancelled", want: TypeBookingCancelled},
		{tag: "booking-reminder", want: TypeBookingReminder},
		{tag: "booking-request", want: TypeBookingRequest},
		{tag: "payment-received", want: TypePaymentReceived},
		{tag: "payment-refunded", want: TypePaymentRefunded},
		{tag: "new-message", want: TypeNewMessage},
		{tag: "new-review", want: TypeNewReview},
		{tag: "", want: TypeUnknown},
		{tag: "BOOKING-CONFIRMED", want: TypeUnknown},
		{tag: "space-launch", want: TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNotificationType(tt.tag))
		})
	}
}

func TestNotification_UnmarshalNormalizesType(t *testing.T) {
	var n Notification
	raw := `{"id":"n1","type":"teleport-ready","title":"T","message":"M","read":false}`

	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, TypeUnknown, n.Type, "an out-of-enum wire tag cannot survive decoding")
	assert.Equal(t, "T", n.Title)
}

func TestPushSubscription_SameAs(t *testing.T) {
	a := PushSubscription{Endpoint: "https://push.example.com/1"}
	b := PushSubscription{Endpoint: "https://push.example.com/1", Keys: PushSubscriptionKeys{P256dh: "other"}}
	c := PushSubscription{Endpoint: "https://push.example.com/2"}

	assert.True(t, a.SameAs(b), "identity is the endpoint, not the keys")
	assert.False(t, a.SameAs(c))
	assert.False(t, PushSubscription{}.SameAs(PushSubscription{}), "empty endpoints are never the same")
}
