// internal/push/manager.go
package push

import (
	"context"
	"encoding/base64"
	"sync"

	"urpark-realtime/internal/common/errors"
	"urpark-realtime/internal/common/logger"
	"urpark-realtime/internal/models"
)

// Permission is the result of asking the user for notification permission.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// Platform abstracts the host's push machinery: worker registration plus a
// push manager. A platform missing either capability reports Supported()
// false and every operation becomes a no-op negative result.
type Platform interface {
	Supported() bool
	RequestPermission(ctx context.Context) (Permission, error)
	// Subscribe creates a user-visible-only subscription bound to the
	// given application server key.
	Subscribe(ctx context.Context, applicationServerKey []byte) (*models.PushSubscription, error)
	// CurrentSubscription returns nil without error when no subscription
	// exists.
	CurrentSubscription(ctx context.Context) (*models.PushSubscription, error)
	Unsubscribe(ctx context.Context) error
}

// API is the slice of the REST client the manager depends on.
type API interface {
	GetPushPublicKey(ctx context.Context) (string, error)
	SavePushSubscription(ctx context.Context, sub models.PushSubscription) error
	DeletePushSubscription(ctx context.Context, endpoint string) error
}

// Manager establishes and tears down the durable push subscription the
// background worker depends on, keeping the server's copy in sync. The
// subscribed flag is never trusted across restarts: the push service can
// invalidate a subscription out of band, so state is re-derived from the
// platform on every start via Refresh.
type Manager struct {
	api      API
	platform Platform
	logger   logger.Logger

	mu         sync.Mutex
	subscribed bool
}

func NewManager(api API, platform Platform, log logger.Logger) *Manager {
	return &Manager{
		api:      api,
		platform: platform,
		logger:   log.WithFields(map[string]interface{}{"component": "push"}),
	}
}

// Supported reports whether push operations can work on this platform.
func (m *Manager) Supported() bool {
	return m.platform.Supported()
}

// Subscribed reports the last derived subscription state.
func (m *Manager) Subscribed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed
}

// Refresh re-derives the subscribed flag from the platform. Call on every
// application start.
func (m *Manager) Refresh(ctx context.Context) bool {
	if !m.platform.Supported() {
		m.setSubscribed(false)
		return false
	}
	sub, err := m.platform.CurrentSubscription(ctx)
	if err != nil {
		m.logger.Warn("subscription query failed", map[string]interface{}{"error": err.Error()})
		m.setSubscribed(false)
		return false
	}
	m.setSubscribed(sub != nil)
	return sub != nil
}

// Subscribe runs the full handshake: fetch the server's public key, decode
// it, ask the user for permission, create the platform subscription and
// register it server-side. A permission denial is a normal negative result.
func (m *Manager) Subscribe(ctx context.Context) error {
	if !m.platform.Supported() {
		return errors.NewPushUnsupportedError()
	}

	keyB64, err := m.api.GetPushPublicKey(ctx)
	if err != nil {
		return errors.NewFetchFailedError("push public key", err)
	}

	key, err := decodeServerKey(keyB64)
	if err != nil {
		return errors.NewFetchFailedError("push public key decode", err)
	}

	perm, err := m.platform.RequestPermission(ctx)
	if err != nil {
		return err
	}
	if perm != PermissionGranted {
		return errors.NewPermissionDeniedError()
	}

	sub, err := m.platform.Subscribe(ctx, key)
	if err != nil {
		return err
	}

	if err := m.api.SavePushSubscription(ctx, *sub); err != nil {
		return err
	}

	m.setSubscribed(true)
	m.logger.Info("push subscription established", map[string]interface{}{
		"endpoint": sub.Endpoint,
	})
	return nil
}

// Unsubscribe removes the subscription server-side by endpoint, then
// locally. With no current subscription this is a successful no-op and
// performs zero network calls.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	if !m.platform.Supported() {
		m.setSubscribed(false)
		return nil
	}

	sub, err := m.platform.CurrentSubscription(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		m.setSubscribed(false)
		return nil
	}

	if err := m.api.DeletePushSubscription(ctx, sub.Endpoint); err != nil {
		// The platform unsubscribe still proceeds; the server row is
		// stale and will be detected lazily on the next push attempt.
		m.logger.Warn("server-side unsubscribe failed", map[string]interface{}{"error": err.Error()})
	}

	if err := m.platform.Unsubscribe(ctx); err != nil {
		return err
	}

	m.setSubscribed(false)
	return nil
}

func (m *Manager) setSubscribed(v bool) {
	m.mu.Lock()
	m.subscribed = v
	m.mu.Unlock()
}

// decodeServerKey decodes the server's base64url VAPID public key, padding
// tolerated either way.
func decodeServerKey(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
