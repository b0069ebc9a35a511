package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/core/ports"
)

// principalKey is the context key the auth middleware stores the resolved
// principal under. Handlers read it through Principal.
const principalKey = "principal"

// CookieCodec translates between the signed session cookie and sessions.
type CookieCodec interface {
	Name() string
	Decode(value string) (string, time.Time, error)
	Encode(session *domain.Session) (*http.Cookie, error)
}

// SessionAuth resolves the session cookie into a principal. A missing,
// invalid or expired cookie is an authentication error; the error handler
// turns it into a 401 problem document, never a redirect. Resolving the
// session also slides its expiry, and a slid session gets its cookie
// re-issued so the token's own expiry keeps rolling forward with it.
func SessionAuth(sessions ports.SessionManager, codec CookieCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(codec.Name())
			if err != nil || cookie.Value == "" {
				return fmt.Errorf("missing session cookie: %w", domain.ErrAuth)
			}

			sessionID, tokenExpiry, err := codec.Decode(cookie.Value)
			if err != nil {
				return err
			}

			session, err := sessions.Get(c.Request().Context(), sessionID)
			if err != nil {
				return fmt.Errorf("resolving session: %w", domain.ErrAuth)
			}

			// The token carries the expiry as whole seconds; compare at that
			// granularity so unchanged sessions do not re-issue.
			if session.ExpiresAt.Truncate(time.Second).After(tokenExpiry) {
				fresh, err := codec.Encode(session)
				if err != nil {
					return err
				}
				c.SetCookie(fresh)
			}

			c.Set(principalKey, session.Principal())
			return next(c)
		}
	}
}

// Principal returns the principal resolved by SessionAuth, if any.
func Principal(c echo.Context) (domain.Principal, bool) {
	principal, ok := c.Get(principalKey).(domain.Principal)
	return principal, ok
}
