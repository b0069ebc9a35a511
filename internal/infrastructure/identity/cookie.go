package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lastmile/admin-api/internal/core/domain"
	"github.com/lastmile/admin-api/internal/infrastructure/config"
)

// CookieCodec translates between sessions and the signed session cookie.
// The cookie value is an HS256 token carrying nothing but the session id and
// expiry; all other session state stays server-side.
type CookieCodec struct {
	cfg    config.CookieConfig
	secret []byte
}

func NewCookieCodec(cfg config.CookieConfig) (*CookieCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("cookie signing secret must be configured")
	}
	return &CookieCodec{cfg: cfg, secret: []byte(cfg.Secret)}, nil
}

// Name returns the configured cookie name.
func (c *CookieCodec) Name() string { return c.cfg.Name }

// Encode builds the session cookie. Non-persistent sessions get a browser
// session cookie (no Expires); persistent ones expire with the session.
func (c *CookieCodec) Encode(session *domain.Session) (*http.Cookie, error) {
	claims := jwt.MapClaims{
		"sid": session.ID,
		"exp": session.ExpiresAt.Unix(),
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}

	cookie := c.base()
	cookie.Value = value
	if session.Persistent {
		cookie.Expires = session.ExpiresAt
	}
	return cookie, nil
}

// Decode verifies the cookie signature and returns the session id together
// with the expiry baked into the token. Callers compare that expiry against
// the server-side session to decide whether the cookie needs re-issuing.
// Every failure mode is an authentication error; the caller sees no detail.
func (c *CookieCodec) Decode(value string) (string, time.Time, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", time.Time{}, fmt.Errorf("invalid session cookie: %w", domain.ErrAuth)
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", time.Time{}, fmt.Errorf("session cookie without id: %w", domain.ErrAuth)
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return "", time.Time{}, fmt.Errorf("session cookie without expiry: %w", domain.ErrAuth)
	}
	return sid, expiry.Time, nil
}

// Clear returns an expired cookie that removes the session cookie client-side.
func (c *CookieCodec) Clear() *http.Cookie {
	cookie := c.base()
	cookie.Value = ""
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func (c *CookieCodec) base() *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: parseSameSite(c.cfg.SameSite),
	}
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
