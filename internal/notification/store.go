// internal/notification/store.go
package notification

import (
	"context"
	"sync"
	"time"

	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/common/metrics"
	"urpark-realtime/internal/models"
	"urpark-realtime/internal/realtime"
)

// API is the slice of the REST client the store depends on.
type API interface {
	ListNotifications(ctx context.Context, page, limit int) (*models.NotificationPage, error)
	GetUnreadCount(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	DeleteAllNotifications(ctx context.Context) error
}

// Store is the client-side cache of in-app notifications: unread count and
// the paginated list. It is an explicit, constructed object with a
// documented lifecycle — Init on login, Dispose on logout — rather than an
// ambient singleton; the poll timer lives and dies with that lifecycle, not
// with any view.
//
// All mutations are optimistic and fire-and-forget: local state updates
// immediately, the server call runs in the background and failures are only
// logged. Weak consistency, acceptable for a notification UI.
type Store struct {
	api          API
	logger       logger.Logger
	pollInterval time.Duration
	pageSize     int
	now          func() time.Time

	mu            sync.Mutex
	notifications []models.Notification
	unread        int
	page          int
	hasMore       bool
	pollCancel    context.CancelFunc
}

// ChannelSignal is the slice of the live channel the store listens to.
// Inbound activity doubles as the hint that server-side notification state
// changed, so the store refreshes on it instead of waiting out the poll.
type ChannelSignal interface {
	OnNewMessage(h func(models.Message))
	OnMessagesRead(h func(realtime.ReadEvent))
}

// StoreOption tweaks a Store, mostly for tests.
type StoreOption func(*Store)

func WithPollInterval(d time.Duration) StoreOption {
	return func(s *Store) { s.pollInterval = d }
}

func WithPageSize(n int) StoreOption {
	return func(s *Store) { s.pageSize = n }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(api API, log logger.Logger, opts ...StoreOption) *Store {
	s := &Store{
		api:          api,
		logger:       log.WithFields(map[string]interface{}{"component": "notifications"}),
		pollInterval: 30 * time.Second,
		pageSize:     20,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init starts the store on login: one immediate unread-count fetch, then the
// fixed-interval poll. Calling Init on a live store restarts the poll.
func (s *Store) Init(ctx context.Context) {
	s.Dispose()

	if err := s.FetchUnreadCount(ctx); err != nil {
		s.logger.Warn("initial unread count fetch failed", map[string]interface{}{"error": err.Error()})
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.pollCancel = cancel
	s.mu.Unlock()

	go s.poll(pollCtx)
}

// Dispose stops the poll immediately. Called on logout; the cached list is
// kept only until the next Init replaces it.
func (s *Store) Dispose() {
	s.mu.Lock()
	cancel := s.pollCancel
	s.pollCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Store) poll(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.FetchUnreadCount(ctx); err != nil {
				s.logger.Warn("unread count poll failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

// AttachChannel registers the store on the live channel. Together with the
// fixed-interval poll this gives the counter two update paths: the channel
// when it is up, the poll as the fallback when it is not.
func (s *Store) AttachChannel(ch ChannelSignal) {
	ch.OnNewMessage(func(models.Message) { s.HandleChannelActivity(context.Background()) })
	ch.OnMessagesRead(func(realtime.ReadEvent) { s.HandleChannelActivity(context.Background()) })
}

// HandleChannelActivity refreshes the unread counter in response to channel
// activity. Failures are only logged; the next poll tick retries anyway.
func (s *Store) HandleChannelActivity(ctx context.Context) {
	if err := s.FetchUnreadCount(ctx); err != nil {
		s.logger.Debug("channel-driven unread refresh failed", map[string]interface{}{"error": err.Error()})
	}
}

// FetchUnreadCount refreshes the unread counter from the server.
func (s *Store) FetchUnreadCount(ctx context.Context) error {
	count, err := s.api.GetUnreadCount(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.unread = count
	s.mu.Unlock()
	return nil
}

// FetchNotifications loads page 1 (replacing the list) or, with loadMore,
// the next page (appending). hasMore is recomputed from the total-pages
// metadata on every fetch.
func (s *Store) FetchNotifications(ctx context.Context, loadMore bool) error {
	s.mu.Lock()
	page := 1
	if loadMore {
		page = s.page + 1
	}
	s.mu.Unlock()

	result, err := s.api.ListNotifications(ctx, page, s.pageSize)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if loadMore {
		s.notifications = append(s.notifications, result.Notifications...)
	} else {
		s.notifications = result.Notifications
	}
	s.page = result.Page
	s.hasMore = result.Page < result.TotalPages
	s.mu.Unlock()
	return nil
}

// MarkAsRead optimistically flips one notification's read flag and clamps
// the unread counter at zero.
func (s *Store) MarkAsRead(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			now := s.now()
			s.notifications[i].Read = true
			s.notifications[i].ReadAt = &now
			if s.unread > 0 {
				s.unread--
			}
			break
		}
	}
	s.mu.Unlock()

	go s.syncMutation(ctx, "mark_read", func(ctx context.Context) error {
		return s.api.MarkNotificationRead(ctx, id)
	})
}

// MarkAllAsRead optimistically flips every unread flag and zeroes the
// counter before the server call resolves.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	now := s.now()
	for i := range s.notifications {
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			s.notifications[i].ReadAt = &now
		}
	}
	s.unread = 0
	s.mu.Unlock()

	go s.syncMutation(ctx, "mark_all_read", s.api.MarkAllNotificationsRead)
}

// Delete removes the notification locally, decrementing the unread counter
// only when the deleted item was unread.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].Read && s.unread > 0 {
				s.unread--
			}
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	go s.syncMutation(ctx, "delete", func(ctx context.Context) error {
		return s.api.DeleteNotification(ctx, id)
	})
}

// DeleteAll clears the list and the counter.
func (s *Store) DeleteAll(ctx context.Context) {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.page = 0
	s.hasMore = false
	s.mu.Unlock()

	go s.syncMutation(ctx, "delete_all", s.api.DeleteAllNotifications)
}

// syncMutation runs the fire-and-forget server call. No rollback on
// failure: the optimistic local state stands and the failure is logged.
func (s *Store) syncMutation(ctx context.Context, operation string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		metrics.MutationSyncFailures.WithLabelValues(operation).Inc()
		s.logger.Warn("mutation sync failed", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
	}
}

// --- Accessors ---

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Notifications returns a copy of the cached list.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// Polling reports whether the lifecycle poll is currently running.
func (s *Store) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollCancel != nil
}
