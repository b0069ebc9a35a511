package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lastmile/admin-api/internal/core/domain"
)

// Problem is the error envelope for all API failures, modelled on RFC 7807.
// Fields with no value are omitted; a 500 from an unrecognized error carries
// no type at all so internals never leak.
type Problem struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title,omitempty"`
	Status    int    `json:"status"`
	Instance  string `json:"instance,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain error categories to deterministic problem documents.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Always answers JSON; authentication failures are 401 documents, never
//     redirects.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		p := resolveProblem(err)
		p.Instance = c.Request().URL.Path

		if p.Status == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("request failed")
		}

		_ = c.JSON(p.Status, p)
	}
}

// resolveProblem is the dispatch table from error categories to problem
// documents. Order matters: coded errors and specific sentinels are checked
// before their broader categories.
func resolveProblem(err error) Problem {
	// Echo's own errors (bind failures, 404 from the router, method not allowed).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return Problem{Status: he.Code, Title: fmt.Sprintf("%v", he.Message)}
	}

	// Client-localizable errors carry their own code.
	var ce *domain.CodedError
	if errors.As(err, &ce) {
		return Problem{Status: http.StatusBadRequest, Type: ce.Code, Title: ce.Code, ErrorCode: ce.Code}
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return Problem{Status: http.StatusNotFound, Type: "object_not_found", Title: "Object not found"}
	case errors.Is(err, domain.ErrAuth):
		return Problem{Status: http.StatusUnauthorized, Type: "authentication_error", Title: "Authentication error"}
	case errors.Is(err, domain.ErrTerms):
		return Problem{Status: http.StatusForbidden, Type: "terms_error", Title: "Terms not accepted"}
	case errors.Is(err, domain.ErrInvalidOperation):
		return Problem{Status: http.StatusForbidden, Type: "invalid_operation", Title: "Invalid operation"}
	case errors.Is(err, domain.ErrConstraint):
		return Problem{Status: http.StatusForbidden, Type: "constraint_violation", Title: "Constraint violation"}
	case errors.Is(err, domain.ErrOutOfRange):
		return Problem{Status: http.StatusBadRequest, Type: "argument_out_of_range", Title: "Argument out of range"}
	case errors.Is(err, domain.ErrIllegalArgument):
		return Problem{Status: http.StatusBadRequest, Type: "illegal_argument", Title: "Illegal argument"}
	case errors.Is(err, domain.ErrDuplicateName):
		return Problem{Status: http.StatusBadRequest, Type: "duplicate_name", Title: "Duplicate name"}
	case errors.Is(err, domain.ErrConcurrency):
		return Problem{Status: http.StatusInternalServerError, Type: "database_concurrency_error", Title: "Database concurrency error"}
	case errors.Is(err, domain.ErrStorageUpdate):
		return Problem{Status: http.StatusInternalServerError, Title: "Database error"}
	case errors.Is(err, domain.ErrTxAborted):
		return Problem{Status: http.StatusInternalServerError, Title: "Transaction error"}
	}

	// Unexpected error: generic document, no type, cause goes to the log only.
	return Problem{Status: http.StatusInternalServerError, Title: "Internal server error"}
}
