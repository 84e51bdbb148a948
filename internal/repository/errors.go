package repository

import (
	"context"
	"errors"
)

var (
	ErrFetchTimeout  = errors.New("fetch timed out")
	ErrHTTPStatus    = errors.New("unexpected http status")
	ErrDisallowed    = errors.New("disallowed by robots.txt")
	ErrNotFound      = errors.New("not found")
	ErrEmptyContent  = errors.New("no content extracted")
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
)

// ErrorKind classifies a fetch error for metrics labels and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrFetchTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrDisallowed):
		return "robots"
	default:
		return "other"
	}
}
