// internal/common/auth/session.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"urpark-realtime/internal/common/errors"
	"urpark-realtime/internal/models"
)

// refreshLeeway is how long before expiry a cached token is already treated
// as stale, so a request never goes out with a token about to lapse mid-flight.
const refreshLeeway = 30 * time.Second

// TokenSource hands out the current session's bearer token, refreshing it
// against the platform's auth service before it expires. The cached token is
// reused until the leeway window; concurrent callers share one refresh.
type TokenSource struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	session models.Session
}

// NewTokenSource seeds the source with the session obtained at login.
func NewTokenSource(baseURL string, session models.Session) *TokenSource {
	return &TokenSource{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
	}
}

// Token returns the current bearer token, refreshing it first when it is
// expired or inside the leeway window. On refresh failure the stale token is
// returned anyway and the server's 401 drives re-authentication.
func (s *TokenSource) Token() string {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if !s.needsRefresh(session) {
		return session.Token
	}

	refreshed, err := s.refresh(context.Background(), session)
	if err != nil {
		return session.Token
	}

	s.mu.Lock()
	s.session = *refreshed
	s.mu.Unlock()
	return refreshed.Token
}

// Session returns a copy of the current session.
func (s *TokenSource) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// SetSession replaces the session after a fresh login.
func (s *TokenSource) SetSession(session models.Session) {
	s.mu.Lock()
	s.session = session
	s.mu.Unlock()
}

func (s *TokenSource) needsRefresh(session models.Session) bool {
	if session.ExpiresAt.IsZero() {
		// Sessions without an expiry are opaque to us; the server decides.
		return false
	}
	return time.Now().After(session.ExpiresAt.Add(-refreshLeeway))
}

func (s *TokenSource) refresh(ctx context.Context, current models.Session) (*models.Session, error) {
	body, err := json.Marshal(map[string]string{"token": current.Token})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+current.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailedError("session refresh", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchFailedError("session refresh",
			fmt.Errorf("auth service returned %d", resp.StatusCode))
	}

	var session models.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, errors.NewFetchFailedError("session refresh decode", err)
	}
	if session.UserID == "" {
		session.UserID = current.UserID
	}
	return &session, nil
}
