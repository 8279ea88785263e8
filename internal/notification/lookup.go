// internal/notification/lookup.go
package notification

import "urpark-realtime/internal/models"

// Icon returns the asset path for a notification type. The switch is
// exhaustive over the closed enum so a new type is a compile-visible,
// greppable change here.
func Icon(t models.NotificationType) string {
	switch t {
	case models.TypeBookingConfirmed:
		return "/assets/icons/notif-booking-confirmed.svg"
	case models.TypeBookingCancelled:
		return "/assets/icons/notif-booking-cancelled.svg"
	case models.TypeBookingReminder:
		return "/assets/icons/notif-booking-reminder.svg"
	case models.TypeBookingRequest:
		return "/assets/icons/notif-booking-request.svg"
	case models.TypePaymentReceived:
		return "/assets/icons/notif-payment-received.svg"
	case models.TypePaymentRefunded:
		return "/assets/icons/notif-payment-refunded.svg"
	case models.TypeNewMessage:
		return "/assets/icons/notif-message.svg"
	case models.TypeNewReview:
		return "/assets/icons/notif-review.svg"
	case models.TypeUnknown:
		return "/assets/icons/notif-generic.svg"
	default:
		return "/assets/icons/notif-generic.svg"
	}
}

// Label returns the short category label shown next to a notification.
func Label(t models.NotificationType) string {
	switch t {
	case models.TypeBookingConfirmed:
		return "Booking confirmed"
	case models.TypeBookingCancelled:
		return "Booking cancelled"
	case models.TypeBookingReminder:
		return "Booking reminder"
	case models.TypeBookingRequest:
		return "Booking request"
	case models.TypePaymentReceived:
		return "Payment received"
	case models.TypePaymentRefunded:
		return "Payment refunded"
	case models.TypeNewMessage:
		return "New message"
	case models.TypeNewReview:
		return "New review"
	case models.TypeUnknown:
		return "Notification"
	default:
		return "Notification"
	}
}
