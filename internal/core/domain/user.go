package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role names form a closed enumeration. Only roles listed in MutableRoles may
// be granted or revoked through the API.
type Role string

const RoleSuperAdmin Role = "SuperAdmin"

// MutableRoles is the allow-list of roles that admin endpoints may touch.
var MutableRoles = map[Role]struct{}{
	RoleSuperAdmin: {},
}

// Mutable reports whether the role may be granted or revoked through the API.
func (r Role) Mutable() bool {
	_, ok := MutableRoles[r]
	return ok
}

// User models a directory record. UserName and FullName are fixed at creation
// time; only the email may change afterwards.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email,omitempty"`
	NormalizedEmail string    `json:"-"`
	UserName        string    `json:"username"`
	FullName        string    `json:"full_name"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	PersonalNumber  string    `json:"personal_number"`
	EmailConfirmed  bool      `json:"email_confirmed"`
	PasswordHash    string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	LastLoggedIn    time.Time `json:"last_logged_in"`
}

// DetailedUser is the admin-panel view of a user including resolved role names.
type DetailedUser struct {
	User
	Roles []string `json:"roles"`
}

// personalNumberRe constrains the personal identifier to 10-12 digits with an
// optional separator before the last four.
var personalNumberRe = regexp.MustCompile(`^\d{6,8}-?\d{4}$`)

// ValidPersonalNumber reports whether the value is an acceptable personal
// identifier. Every writer of the users table applies this same rule.
func ValidPersonalNumber(value string) bool {
	return personalNumberRe.MatchString(value)
}

// NormalizeEmail canonicalizes an email for uniqueness comparisons. An empty
// email normalizes to the empty string, which never collides.
func NormalizeEmail(email string) string {
	return strings.ToUpper(strings.TrimSpace(email))
}

// Principal identifies the authenticated caller of a request.
type Principal struct {
	UserID    string
	SessionID string
	Roles     []string
}

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == string(role) {
			return true
		}
	}
	return false
}
