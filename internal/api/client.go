// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"urpark-realtime/internal/common/httpx"
	"urpark-realtime/internal/models"
)

// Client talks to the marketplace backend's REST surface. Authentication is
// external to this subsystem: a TokenProvider hands back the current user's
// bearer token.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
	token      TokenProvider
}

// TokenProvider exposes the current session's bearer token.
type TokenProvider interface {
	Token() string
}

// StaticToken is a TokenProvider for a fixed token, used in tests and tools.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// NewClient builds the REST client. Production callers pass an
// auth.TokenSource seeded with the logged-in session so the bearer token
// refreshes itself near expiry:
//
//	ts := auth.NewTokenSource(cfg.Server.APIBaseURL, session)
//	client := api.NewClient(cfg.Server.APIBaseURL, ts, 10*time.Second)
//
// Tests and one-off tools can use StaticToken instead.
func NewClient(baseURL string, token TokenProvider, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpx.NewClient(timeout),
		token:      token,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// --- Conversations ---

// ListConversations returns the requesting user's conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var out struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// GetOrCreateConversation fetches the conversation with the other party,
// creating it if none exists. spaceID is optional context for a listing.
func (c *Client) GetOrCreateConversation(ctx context.Context, otherUserID, spaceID string) (*models.Conversation, error) {
	body := map[string]string{"otherUserId": otherUserID}
	if spaceID != "" {
		body["spaceId"] = spaceID
	}
	var out models.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMessages fetches one page of a conversation's history, oldest first.
func (c *Client) GetMessages(ctx context.Context, conversationID string, page, limit int) ([]models.Message, error) {
	var out struct {
		Messages []models.Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/conversations/%s/messages?page=%d&limit=%d", conversationID, page, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage is the REST fallback send used when the channel is down. The
// clientKey travels with the message so the channel echo can be matched.
func (c *Client) SendMessage(ctx context.Context, conversationID, content, clientKey string) (*models.Message, error) {
	body := map[string]string{
		"content":   content,
		"clientKey": clientKey,
	}
	var out models.Message
	path := fmt.Sprintf("/api/conversations/%s/messages", conversationID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkConversationRead flips the read flag on every message the other
// participant sent.
func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/conversations/%s/read", conversationID)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}
