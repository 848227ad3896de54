// internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrFetchInProgress is returned when a tweet fetch is requested while another one is running.
var ErrFetchInProgress = stderrors.New("a fetch is already in progress")

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// ValidationError is returned when caller input is rejected before any I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteAPIError wraps a failed call to GitHub or X.
type RemoteAPIError struct {
	Service    string
	Endpoint   string
	StatusCode int
	// ResetAt is set when the upstream reported a rate limit reset time.
	ResetAt *time.Time
	Err     error
}

func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("%s request %s failed", e.Service, e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.ResetAt != nil {
		msg += fmt.Sprintf(" (rate limit resets at %s)", e.ResetAt.UTC().Format(time.RFC3339))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// CooldownError is returned when a fetch is attempted before the cooldown window has elapsed.
type CooldownError struct {
	LastFetchedAt time.Time
	RetryAt       time.Time
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active, try again after %s", e.RetryAt.UTC().Format(time.RFC3339))
}

// IsDenied reports whether err is an expected policy denial rather than a failure.
func IsDenied(err error) bool {
	var cooldown *CooldownError
	return stderrors.As(err, &cooldown) || stderrors.Is(err, ErrFetchInProgress)
}

// StatusCode maps an error to the HTTP status reported to callers.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		repoFormat *ErrInvalidRepoFormat
		remote     *RemoteAPIError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case IsDenied(err):
		return http.StatusTooManyRequests
	case stderrors.As(err, &validation), stderrors.As(err, &repoFormat):
		return http.StatusBadRequest
	case stderrors.As(err, &remote):
		if remote.StatusCode == http.StatusTooManyRequests {
			return http.StatusTooManyRequests
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
