// internal/notification/store_test.go
package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/models"
	"urpark-realtime/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type mockNotificationAPI struct {
	mu sync.Mutex

	listFunc        func(ctx context.Context, page, limit int) (*models.NotificationPage, error)
	unreadCountFunc func(ctx context.Context) (int, error)

	unreadCalls  int
	markRead     []string
	markAllCalls int
	deleted      []string
	deleteAll    int

	mutationErr error
	release     chan struct{} // when set, mutations block until closed
}

func (a *mockNotificationAPI) ListNotifications(ctx context.Context, page, limit int) (*models.NotificationPage, error) {
	if a.listFunc != nil {
		return a.listFunc(ctx, page, limit)
	}
	return &models.NotificationPage{Page: page, TotalPages: page}, nil
}

func (a *mockNotificationAPI) GetUnreadCount(ctx context.Context) (int, error) {
	a.mu.Lock()
	a.unreadCalls++
	a.mu.Unlock()
	if a.unreadCountFunc != nil {
		return a.unreadCountFunc(ctx)
	}
	return 0, nil
}

func (a *mockNotificationAPI) mutation() error {
	if a.release != nil {
		<-a.release
	}
	return a.mutationErr
}

func (a *mockNotificationAPI) MarkNotificationRead(ctx context.Context, id string) error {
	if err := a.mutation(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markRead = append(a.markRead, id)
	return nil
}

func (a *mockNotificationAPI) MarkAllNotificationsRead(ctx context.Context) error {
	if err := a.mutation(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.markAllCalls++
	return nil
}

func (a *mockNotificationAPI) DeleteNotification(ctx context.Context, id string) error {
	if err := a.mutation(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleted = append(a.deleted, id)
	return nil
}

func (a *mockNotificationAPI) DeleteAllNotifications(ctx context.Context) error {
	if err := a.mutation(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deleteAll++
	return nil
}

func (a *mockNotificationAPI) unreadCallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unreadCalls
}

// ==========================
// Helpers
// ==========================

func pageOf(page, totalPages int, ids ...string) *models.NotificationPage {
	p := &models.NotificationPage{Page: page, TotalPages: totalPages, Total: len(ids)}
	for _, id := range ids {
		p.Notifications = append(p.Notifications, models.Notification{
			ID:   id,
			Type: models.TypeNewMessage,
		})
	}
	return p
}

func seedStore(t *testing.T, api *mockNotificationAPI, unread int, ids ...string) *Store {
	t.Helper()
	api.listFunc = func(ctx context.Context, page, limit int) (*models.NotificationPage, error) {
		return pageOf(1, 1, ids...), nil
	}
	api.unreadCountFunc = func(ctx context.Context) (int, error) { return unread, nil }

	s := NewStore(api, logger.NewTestLogger(t))
	require.NoError(t, s.FetchUnreadCount(context.Background()))
	require.NoError(t, s.FetchNotifications(context.Background(), false))
	return s
}

// ==========================
// Tests
// ==========================

func TestStore_FetchNotifications_ReplaceVsAppend(t *testing.T) {
	api := &mockNotificationAPI{}
	api.listFunc = func(ctx context.Context, page, limit int) (*models.NotificationPage, error) {
		switch page {
		case 1:
			return pageOf(1, 3, "n1", "n2"), nil
		case 2:
			return pageOf(2, 3, "n3", "n4"), nil
		default:
			return pageOf(3, 3, "n5"), nil
		}
	}
	s := NewStore(api, logger.NewTestLogger(t), WithPageSize(2))
	ctx := context.Background()

	require.NoError(t, s.FetchNotifications(ctx, false))
	assert.Len(t, s.Notifications(), 2)
	assert.True(t, s.HasMore())

	require.NoError(t, s.FetchNotifications(ctx, true))
	assert.Len(t, s.Notifications(), 4)
	assert.True(t, s.HasMore())

	require.NoError(t, s.FetchNotifications(ctx, true))
	assert.Len(t, s.Notifications(), 5)
	assert.False(t, s.HasMore(), "last page exhausts pagination")

	// A plain refresh replaces everything with page 1 again.
	require.NoError(t, s.FetchNotifications(ctx, false))
	assert.Len(t, s.Notifications(), 2)
}

func TestStore_FetchNotifications_Error(t *testing.T) {
	api := &mockNotificationAPI{}
	api.listFunc = func(ctx context.Context, page, limit int) (*models.NotificationPage, error) {
		return nil, errors.New("boom")
	}
	s := NewStore(api, logger.NewTestLogger(t))

	assert.Error(t, s.FetchNotifications(context.Background(), false))
	assert.Empty(t, s.Notifications())
}

func TestStore_MarkAsRead_Optimistic(t *testing.T) {
	api := &mockNotificationAPI{release: make(chan struct{})}
	s := seedStore(t, api, 2, "n1", "n2")

	s.MarkAsRead(context.Background(), "n1")

	// Local state updated before the (still blocked) server call resolves.
	assert.Equal(t, 1, s.UnreadCount())
	assert.True(t, s.Notifications()[0].Read)
	assert.NotNil(t, s.Notifications()[0].ReadAt)

	close(api.release)
	assert.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.markRead) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStore_MarkAllAsRead_ImmediateZero(t *testing.T) {
	api := &mockNotificationAPI{release: make(chan struct{})}
	s := seedStore(t, api, 5, "n1", "n2", "n3", "n4", "n5")

	s.MarkAllAsRead(context.Background())

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.Notifications() {
		assert.True(t, n.Read)
	}

	close(api.release)
	assert.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return api.markAllCalls == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStore_UnreadNeverNegative(t *testing.T) {
	api := &mockNotificationAPI{}
	s := seedStore(t, api, 0, "n1") // server counter already at zero

	ctx := context.Background()
	s.MarkAsRead(ctx, "n1")
	s.MarkAsRead(ctx, "n1")
	s.Delete(ctx, "n1")

	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_Delete_DecrementsOnlyIfUnread(t *testing.T) {
	tests := []struct {
		name       string
		markFirst  bool
		wantUnread int
	}{
		{name: "deleting an unread notification decrements", markFirst: false, wantUnread: 1},
		{name: "deleting a read notification does not", markFirst: true, wantUnread: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockNotificationAPI{}
			s := seedStore(t, api, 2, "n1", "n2")
			ctx := context.Background()

			if tt.markFirst {
				s.MarkAsRead(ctx, "n1") // 2 -> 1
			}
			s.Delete(ctx, "n1")

			assert.Equal(t, tt.wantUnread, s.UnreadCount())
			assert.Len(t, s.Notifications(), 1)
		})
	}
}

func TestStore_DeleteAll(t *testing.T) {
	api := &mockNotificationAPI{}
	s := seedStore(t, api, 3, "n1", "n2", "n3")

	s.DeleteAll(context.Background())

	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, s.UnreadCount())
	assert.False(t, s.HasMore())
}

func TestStore_MutationFailureKeepsOptimisticState(t *testing.T) {
	api := &mockNotificationAPI{mutationErr: errors.New("server down")}
	s := seedStore(t, api, 1, "n1")

	s.MarkAsRead(context.Background(), "n1")

	// No rollback: the flag stays flipped despite the failed sync.
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.Notifications()[0].Read)
	assert.Equal(t, 0, s.UnreadCount())
}

func TestStore_PollLifecycle(t *testing.T) {
	api := &mockNotificationAPI{}
	api.unreadCountFunc = func(ctx context.Context) (int, error) { return 4, nil }
	s := NewStore(api, logger.NewTestLogger(t), WithPollInterval(15*time.Millisecond))

	s.Init(context.Background())
	assert.True(t, s.Polling())
	assert.Equal(t, 4, s.UnreadCount(), "Init fetches the count immediately")

	// The ticker keeps refreshing while live.
	require.Eventually(t, func() bool {
		return api.unreadCallCount() >= 3
	}, time.Second, 5*time.Millisecond)

	s.Dispose()
	assert.False(t, s.Polling())

	settled := api.unreadCallCount()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, api.unreadCallCount(), settled+1, "poll stops after Dispose")
}

func TestStore_InitRestartsPoll(t *testing.T) {
	api := &mockNotificationAPI{}
	s := NewStore(api, logger.NewTestLogger(t), WithPollInterval(time.Minute))

	ctx := context.Background()
	s.Init(ctx)
	s.Init(ctx)

	assert.True(t, s.Polling())
	assert.Equal(t, 2, api.unreadCallCount(), "one immediate fetch per Init")
	s.Dispose()
}

type mockChannelSignal struct {
	onNewMessage   []func(models.Message)
	onMessagesRead []func(realtime.ReadEvent)
}

func (c *mockChannelSignal) OnNewMessage(h func(models.Message)) {
	c.onNewMessage = append(c.onNewMessage, h)
}

func (c *mockChannelSignal) OnMessagesRead(h func(realtime.ReadEvent)) {
	c.onMessagesRead = append(c.onMessagesRead, h)
}

func TestStore_ChannelActivityRefreshesUnreadCount(t *testing.T) {
	api := &mockNotificationAPI{}
	count := 3
	api.unreadCountFunc = func(ctx context.Context) (int, error) {
		return count, nil
	}
	s := NewStore(api, logger.NewTestLogger(t))

	channel := &mockChannelSignal{}
	s.AttachChannel(channel)
	require.Len(t, channel.onNewMessage, 1)
	require.Len(t, channel.onMessagesRead, 1)

	// An inbound message refreshes the counter without any poll tick.
	channel.onNewMessage[0](models.Message{ID: "m1", ConversationID: "conv-1"})
	assert.Equal(t, 3, s.UnreadCount())

	// A read receipt does too.
	count = 0
	channel.onMessagesRead[0](realtime.ReadEvent{ConversationID: "conv-1"})
	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, 2, api.unreadCalls)
}

func TestStore_ChannelActivityFetchFailureKeepsState(t *testing.T) {
	api := &mockNotificationAPI{}
	s := seedStore(t, api, 4, "n1")
	api.unreadCountFunc = func(ctx context.Context) (int, error) {
		return 0, errors.New("backend down")
	}

	s.HandleChannelActivity(context.Background())

	assert.Equal(t, 4, s.UnreadCount(), "failed refresh leaves the counter untouched")
}
