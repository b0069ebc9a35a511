package domain

import "time"

// Session is the server-side state behind a session cookie. The cookie itself
// carries only a signed reference to the session id; everything else lives in
// the session store under a TTL matching ExpiresAt.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Roles      []string  `json:"roles,omitempty"`
	Persistent bool      `json:"persistent"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Principal derives the request principal from the session.
func (s *Session) Principal() Principal {
	return Principal{UserID: s.UserID, SessionID: s.ID, Roles: s.Roles}
}
