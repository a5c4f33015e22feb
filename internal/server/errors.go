// Package server exposes extraction run control over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/contact-extractor/internal/pipeline"
)

// ErrRunNotFound indicates no stored run has the given ID
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrStoreUnavailable indicates the server was started without persistence
type ErrStoreUnavailable struct{}

func (e *ErrStoreUnavailable) Error() string {
	return "run history is not available: no database configured"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrRunNotFound
		noStore    *ErrStoreUnavailable
		validation *ErrValidation
		channel    *pipeline.ChannelError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &noStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrRunSuperseded):
		return http.StatusConflict
	case errors.As(err, &channel):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
