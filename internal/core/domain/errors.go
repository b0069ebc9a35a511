package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. The HTTP layer resolves these to problem documents; see
// internal/api/error_handler.go for the full dispatch table.
var (
	ErrAuth             = errors.New("authentication error")
	ErrTerms            = errors.New("terms not accepted")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConstraint       = errors.New("constraint violation")
	ErrOutOfRange       = errors.New("argument out of range")
	ErrIllegalArgument  = errors.New("illegal argument")
	ErrDuplicateName    = errors.New("duplicate name")
	ErrConcurrency      = errors.New("database concurrency conflict")
	ErrStorageUpdate    = errors.New("database update failed")
	ErrTxAborted        = errors.New("transaction aborted")
)

// ErrUserNotFound is returned by lookups on a missing user id or email.
var ErrUserNotFound = errors.New("user not found")

// Role-assignment outcomes surfaced by the store. The directory service folds
// them into itemized Results; they never reach the HTTP layer.
var (
	ErrRoleAlreadyGranted = errors.New("role already granted")
	ErrRoleNotGranted     = errors.New("role not granted")
)

// ErrSessionNotFound is returned by the session store when a session id does
// not resolve. The auth middleware treats it as an authentication failure.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingIdentity means a session carried no user identifier. This is a
// programming-error-class failure, not a client mistake, and surfaces as 500.
var ErrMissingIdentity = errors.New("no identity on principal")

// ErrInvalidCredentials is the opaque login failure. It deliberately does not
// distinguish an unknown account from a wrong password.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrAuth)

// CodedError is a client-localizable domain error. The HTTP layer maps any
// CodedError to 400 with the code as the problem-document type token.
type CodedError struct {
	Code string
}

func (e *CodedError) Error() string { return e.Code }

// Coded error instances. Compared with errors.Is (pointer identity).
var (
	ErrEmailAlreadyInUse = &CodedError{Code: "email_already_used"}
	ErrUnsupportedRole   = &CodedError{Code: "unsupported_role"}
	ErrInvalidPassword   = &CodedError{Code: "invalid_password"}
)

// ResultError itemizes one validation failure inside a Result.
type ResultError struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Result is the outcome of a directory mutation. Expected validation failures
// are reported here instead of being raised as errors.
type Result struct {
	Errors []ResultError `json:"errors,omitempty"`
}

// Succeeded reports whether the mutation completed without validation errors.
func (r Result) Succeeded() bool { return len(r.Errors) == 0 }

// ErrorCodes returns the itemized error codes, for logging.
func (r Result) ErrorCodes() []string {
	codes := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

// OK is the successful Result.
func OK() Result { return Result{} }

// Failed builds a Result carrying a single error code.
func Failed(code, description string) Result {
	return Result{Errors: []ResultError{{Code: code, Description: description}}}
}

// SignInResult is the outcome of a credential check. Failure is a normal
// outcome, never an error: callers receive an opaque succeeded/failed flag.
type SignInResult struct {
	Succeeded bool `json:"succeeded"`
}

var (
	SignInSuccess = SignInResult{Succeeded: true}
	SignInFailed  = SignInResult{}
)
