// internal/models/notification.go
package models

import (
	"encoding/json"
	"time"
)

// NotificationType is the closed set of notification kinds the platform
// emits. Keeping it a typed enum forces the routing and icon/label lookups
// to handle every case explicitly.
type NotificationType string

const (
	TypeBookingConfirmed NotificationType = "booking-confirmed"
	TypeBookingCancelled NotificationType = "booking-cancelled"
	TypeBookingReminder  NotificationType = "booking-reminder"
	TypeBookingRequest   NotificationType = "booking-request"
	TypePaymentReceived  NotificationType = "payment-received"
	TypePaymentRefunded  NotificationType = "payment-refunded"
	TypeNewMessage       NotificationType = "new-message"
	TypeNewReview        NotificationType = "new-review"

	// TypeUnknown covers tags newer than this build. Unknown tags route to
	// home and render with the generic icon.
	TypeUnknown NotificationType = "unknown"
)

// ParseNotificationType maps a wire tag onto the closed enum. Anything not
// recognized collapses to TypeUnknown rather than erroring.
func ParseNotificationType(tag string) NotificationType {
	switch t := NotificationType(tag); t {
	case TypeBookingConfirmed, TypeBookingCancelled, TypeBookingReminder,
		TypeBookingRequest, TypePaymentReceived, TypePaymentRefunded,
		TypeNewMessage, TypeNewReview:
		return t
	default:
		return TypeUnknown
	}
}

// Notification is an in-app notification row. Created server-side; this
// subsystem only flips the read flag and deletes.
type Notification struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// UnmarshalJSON normalizes the wire tag through ParseNotificationType so a
// server newer than this client cannot smuggle an out-of-enum value in.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type alias Notification
	var raw struct {
		alias
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = Notification(raw.alias)
	n.Type = ParseNotificationType(raw.Type)
	return nil
}

// NotificationPage is the paginated list response shape.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"totalPages"`
	Total         int            `json:"total"`
}
