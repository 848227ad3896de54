// internal/result/result.go

// Package result defines the tagged outcome returned to dashboard callers.
package result

import (
	"errors"
	"net/http"
	"time"

	custom_errors "chapter-ingest/internal/errors"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	// StatusDenied marks an expected policy refusal, such as an active cooldown.
	StatusDenied Status = "denied"
)

// Result is what every exposed operation returns; callers branch on Status.
type Result[T any] struct {
	Status     Status     `json:"status"`
	Data       T          `json:"data"`
	Message    string     `json:"message,omitempty"`
	StatusCode int        `json:"statusCode"`
	RetryAt    *time.Time `json:"retryAt,omitempty"`
}

func Success[T any](data T, message string) Result[T] {
	return Result[T]{
		Status:     StatusSuccess,
		Data:       data,
		Message:    message,
		StatusCode: http.StatusOK,
	}
}

// Failure converts err into an error or denied result.
func Failure[T any](err error) Result[T] {
	r := Result[T]{
		Status:     StatusError,
		Message:    err.Error(),
		StatusCode: custom_errors.StatusCode(err),
	}

	var cooldown *custom_errors.CooldownError
	var remote *custom_errors.RemoteAPIError
	switch {
	case errors.As(err, &cooldown):
		r.Status = StatusDenied
		retryAt := cooldown.RetryAt
		r.RetryAt = &retryAt
	case custom_errors.IsDenied(err):
		r.Status = StatusDenied
	case errors.As(err, &remote):
		r.RetryAt = remote.ResetAt
	}

	if r.StatusCode == http.StatusInternalServerError {
		// Store and internal errors are logged server side; keep details out of the UI.
		r.Message = "internal error"
	}
	return r
}

// From returns Success(data, message) when err is nil and Failure otherwise.
func From[T any](data T, err error, message string) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(data, message)
}

// OK reports whether the result is a success.
func (r Result[T]) OK() bool {
	return r.Status == StatusSuccess
}
