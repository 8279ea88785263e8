// internal/conversation/grouping.go
package conversation

import (
	"time"

	"urpark-realtime/internal/models"
)

// MessageGroup is one calendar day's worth of messages with its rendered
// header label.
type MessageGroup struct {
	Label    string
	Date     time.Time
	Messages []models.Message
}

const longDateFormat = "Monday, January 2, 2006"

// GroupByDate buckets messages by calendar date in the timestamp's own
// location (not UTC-normalized) and labels each bucket Today, Yesterday or
// the long-form date. The input is assumed already ordered.
func GroupByDate(msgs []models.Message, now time.Time) []MessageGroup {
	var groups []MessageGroup

	for _, msg := range msgs {
		day := truncateToDay(msg.CreatedAt)
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(day) {
			groups[n-1].Messages = append(groups[n-1].Messages, msg)
			continue
		}
		groups = append(groups, MessageGroup{
			Label:    dayLabel(day, now),
			Date:     day,
			Messages: []models.Message{msg},
		})
	}

	return groups
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayLabel(day, now time.Time) string {
	today := truncateToDay(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format(longDateFormat)
	}
}
