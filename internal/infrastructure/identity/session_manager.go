package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

const (
	defaultWindow           = time.Hour
	defaultPersistentWindow = 30 * 24 * time.Hour
)

// Manager implements ports.SessionManager on top of a SessionRepository.
// Sessions use a sliding expiration: resolving a session past half of its
// window pushes the expiry forward by a full window.
type Manager struct {
	store            ports.SessionRepository
	window           time.Duration
	persistentWindow time.Duration
	now              func() time.Time
}

var _ ports.SessionManager = (*Manager)(nil)

func NewManager(store ports.SessionRepository, window, persistentWindow time.Duration) *Manager {
	if window <= 0 {
		window = defaultWindow
	}
	if persistentWindow <= 0 {
		persistentWindow = defaultPersistentWindow
	}
	return &Manager{store: store, window: window, persistentWindow: persistentWindow, now: time.Now}
}

func (m *Manager) Issue(ctx context.Context, userID string, roles []string, persistent bool) (*domain.Session, error) {
	now := m.now().UTC()
	window := m.windowFor(persistent)
	session := &domain.Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		Roles:      roles,
		Persistent: persistent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(window),
	}
	if err := m.store.Save(ctx, session, window); err != nil {
		return nil, err
	}
	return session, nil
}

// Get resolves a session id and applies the sliding window. An expired
// session is deleted and reported as not found.
func (m *Manager) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if session.Expired(now) {
		_ = m.store.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	window := m.windowFor(session.Persistent)
	if session.ExpiresAt.Sub(now) < window/2 {
		session.LastSeenAt = now
		session.ExpiresAt = now.Add(window)
		if err := m.store.Save(ctx, session, window); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// Refresh reissues the session with a fresh expiry and role snapshot.
func (m *Manager) Refresh(ctx context.Context, sessionID string, roles []string) (*domain.Session, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	window := m.windowFor(session.Persistent)
	session.Roles = roles
	session.LastSeenAt = now
	session.ExpiresAt = now.Add(window)
	if err := m.store.Save(ctx, session, window); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}

func (m *Manager) windowFor(persistent bool) time.Duration {
	if persistent {
		return m.persistentWindow
	}
	return m.window
}
