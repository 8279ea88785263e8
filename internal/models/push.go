// internal/models/push.go
package models

// PushSubscriptionKeys are the client keys the push service encrypts
// payloads against. Opaque to this subsystem.
type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription identifies one durable push registration. Two
// subscriptions are the same subscription iff their endpoints are equal; the
// push service may invalidate one out of band at any time, so a stored
// subscription is always possibly stale.
type PushSubscription struct {
	Endpoint string               `json:"endpoint"`
	Keys     PushSubscriptionKeys `json:"keys"`
}

// SameAs reports endpoint equality, the only identity a subscription has.
func (s PushSubscription) SameAs(other PushSubscription) bool {
	return s.Endpoint != "" && s.Endpoint == other.Endpoint
}

// PushAction is a named button on a displayed notification.
type PushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// PushPayload is the JSON body of a push event. Every field is optional;
// the worker substitutes defaults rather than dropping the event.
type PushPayload struct {
	Title   string                 `json:"title,omitempty"`
	Body    string                 `json:"body,omitempty"`
	Icon    string                 `json:"icon,omitempty"`
	Badge   string                 `json:"badge,omitempty"`
	Tag     string                 `json:"tag,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Actions []PushAction           `json:"actions,omitempty"`
}
