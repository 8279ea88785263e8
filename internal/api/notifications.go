// internal/api/notifications.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"urpark-realtime/internal/models"
)

// --- In-app notifications ---

// ListNotifications fetches one page of the user's notifications, newest
// pages first on the server side.
func (c *Client) ListNotifications(ctx context.Context, page, limit int) (*models.NotificationPage, error) {
	var out models.NotificationPage
	path := fmt.Sprintf("/api/notifications?page=%d&limit=%d", page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUnreadCount returns the number of unread notifications.
func (c *Client) GetUnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkNotificationRead flips one notification's read flag server-side.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead flips every unread notification server-side.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil)
}

// DeleteNotification removes one notification server-side.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+id, nil, nil)
}

// DeleteAllNotifications clears the user's notification list server-side.
func (c *Client) DeleteAllNotifications(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications", nil, nil)
}

// --- Push subscriptions ---

// GetPushPublicKey returns the server's base64url-encoded VAPID public key.
func (c *Client) GetPushPublicKey(ctx context.Context) (string, error) {
	var out struct {
		PublicKey string `json:"publicKey"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/push/public-key", nil, &out); err != nil {
		return "", err
	}
	return out.PublicKey, nil
}

// SavePushSubscription registers the platform subscription server-side so
// the push fan-out can reach this profile.
func (c *Client) SavePushSubscription(ctx context.Context, sub models.PushSubscription) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/push/subscribe", sub, nil)
}

// DeletePushSubscription removes a subscription by its endpoint URL.
func (c *Client) DeletePushSubscription(ctx context.Context, endpoint string) error {
	body := map[string]string{"endpoint": endpoint}
	return c.do(ctx, http.MethodDelete, "/api/notifications/push/subscribe", body, nil)
}

// ListPushSubscriptions returns the user's active push subscriptions.
func (c *Client) ListPushSubscriptions(ctx context.Context) ([]models.PushSubscription, error) {
	var out struct {
		Subscriptions []models.PushSubscription `json:"subscriptions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/push/subscriptions", nil, &out); err != nil {
		return nil, err
	}
	return out.Subscriptions, nil
}
