// internal/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]interface{}
}

// newStubServer serves canned JSON and records every request it sees.
func newStubServer(t *testing.T, status int, response string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		requests = append(requests, rec)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return NewClient(server.URL, StaticToken("tok-abc"), 5*time.Second), &requests
}

func TestClient_GetMessages(t *testing.T) {
	client, requests := newStubServer(t, http.StatusOK, `{
		"messages": [
			{"id":"m1","conversationId":"c1","senderId":"u2","senderName":"Ayşe","content":"hi","createdAt":"2026-03-01T12:00:00Z"},
			{"id":"m2","conversationId":"c1","senderId":"u1","content":"hello","createdAt":"2026-03-01T12:01:00Z","read":true}
		]
	}`)

	msgs, err := client.GetMessages(context.Background(), "c1", 2, 50)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "Ayşe", msgs[0].SenderName)
	assert.True(t, msgs[1].Read)

	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/api/conversations/c1/messages", req.path)
	assert.Equal(t, "page=2&limit=50", req.query)
	assert.Equal(t, "Bearer tok-abc", req.auth)
}

func TestClient_SendMessage(t *testing.T) {
	client, requests := newStubServer(t, http.StatusCreated,
		`{"id":"srv-1","conversationId":"c1","senderId":"u1","content":"hi","clientKey":"key-1"}`)

	msg, err := client.SendMessage(context.Background(), "c1", "hi", "key-1")

	require.NoError(t, err)
	assert.Equal(t, "srv-1", msg.ID)
	assert.Equal(t, "key-1", msg.ClientKey)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/conversations/c1/messages", req.path)
	assert.Equal(t, "hi", req.body["content"])
	assert.Equal(t, "key-1", req.body["clientKey"])
}

func TestClient_GetOrCreateConversation(t *testing.T) {
	client, requests := newStubServer(t, http.StatusOK, `{"id":"c9"}`)

	conv, err := client.GetOrCreateConversation(context.Background(), "u2", "space-1")

	require.NoError(t, err)
	assert.Equal(t, "c9", conv.ID)

	req := (*requests)[0]
	assert.Equal(t, "/api/conversations", req.path)
	assert.Equal(t, "u2", req.body["otherUserId"])
	assert.Equal(t, "space-1", req.body["spaceId"])
}

func TestClient_MarkConversationRead(t *testing.T) {
	client, requests := newStubServer(t, http.StatusNoContent, "")

	require.NoError(t, client.MarkConversationRead(context.Background(), "c1"))

	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/api/conversations/c1/read", req.path)
}

func TestClient_ListNotifications(t *testing.T) {
	client, requests := newStubServer(t, http.StatusOK, `{
		"notifications": [
			{"id":"n1","type":"booking-confirmed","title":"Confirmed"},
			{"id":"n2","type":"something-new","title":"Mystery"}
		],
		"page": 1, "totalPages": 3, "total": 41
	}`)

	page, err := client.ListNotifications(context.Background(), 1, 20)

	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "unknown", string(page.Notifications[1].Type), "unrecognized tags collapse on decode")

	assert.Equal(t, "page=1&limit=20", (*requests)[0].query)
}

func TestClient_GetUnreadCount(t *testing.T) {
	client, _ := newStubServer(t, http.StatusOK, `{"count": 7}`)

	count, err := client.GetUnreadCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestClient_PushSubscriptionEndpoints(t *testing.T) {
	client, requests := newStubServer(t, http.StatusOK, `{"publicKey":"a2V5"}`)
	ctx := context.Background()

	key, err := client.GetPushPublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a2V5", key)

	require.NoError(t, client.DeletePushSubscription(ctx, "https://push.example.com/s/1"))

	req := (*requests)[1]
	assert.Equal(t, http.MethodDelete, req.method)
	assert.Equal(t, "/api/notifications/push/subscribe", req.path)
	assert.Equal(t, "https://push.example.com/s/1", req.body["endpoint"])
}

func TestClient_NonSuccessStatus(t *testing.T) {
	client, _ := newStubServer(t, http.StatusForbidden, `{"error":"not yours"}`)

	_, err := client.GetMessages(context.Background(), "c1", 1, 50)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "not yours")
}
