package domain

import "time"

// Audit actions recorded by the directory and account services.
const (
	AuditLoginSucceeded = "login_succeeded"
	AuditLoginFailed    = "login_failed"
	AuditLogout         = "logout"
	AuditCookieRefresh  = "cookie_refreshed"
	AuditUserCreated    = "user_created"
	AuditUserDeleted    = "user_deleted"
	AuditRoleGranted    = "role_granted"
	AuditRoleRevoked    = "role_revoked"
	AuditSelfUpdated    = "self_updated"
)

// AuditEntry is one identity-related event. Audit records are user-identifying
// even where the externally observable API response is deliberately opaque.
type AuditEntry struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
