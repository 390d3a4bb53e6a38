package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTransport      = errors.New("transport failure")
	ErrInvalidPayload = errors.New("invalid analysis payload")
	ErrEmptyResponse  = errors.New("no response from AI")
	ErrRunInProgress  = errors.New("an analysis run is already in progress")
)

// BackendStatusError is a non-2xx answer from the analysis backend.
// Its message is the backend's detail verbatim.
type BackendStatusError struct {
	StatusCode int
	Detail     string
}

func (e *BackendStatusError) Error() string {
	return e.Detail
}

// ErrorMessage turns a run failure into the line shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *BackendStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Detail
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Analysis timed out"
	}

	if msg := err.Error(); msg != "" {
		return msg
	}

	return fmt.Sprintf("analysis failed (%T)", err)
}
