// internal/worker/routes.go
package worker

import "urpark-realtime/internal/models"

// Route resolves the in-app path a notification click navigates to. The
// switch is exhaustive over the closed tag enum; unknown tags go home.
func Route(t models.NotificationType, data map[string]interface{}) string {
	switch t {
	case models.TypeBookingConfirmed, models.TypeBookingCancelled,
		models.TypeBookingReminder, models.TypePaymentReceived,
		models.TypePaymentRefunded:
		return "/bookings"
	case models.TypeBookingRequest:
		return "/my-spaces"
	case models.TypeNewMessage:
		if id := stringField(data, "conversationId"); id != "" {
			return "/messages/" + id
		}
		return "/messages"
	case models.TypeNewReview:
		if id := stringField(data, "spaceId"); id != "" {
			return "/spaces/" + id
		}
		return "/my-spaces"
	case models.TypeUnknown:
		return "/"
	default:
		return "/"
	}
}

func stringField(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
