package api

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/go-errors/errors"

	"github.com/okian/talentradar/internal/adapters/mq/queue"
	"github.com/okian/talentradar/internal/adapters/repository"
	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnavailable   = errors.New("feature unavailable")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Kind classifies an APIError for clients and logs.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindBackpressure Kind = "backpressure"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

// APIError is an error bound for an HTTP response. It keeps the stack of
// the point where it was raised.
type APIError struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	err     *goerrors.Error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err.Err)
}

func (e *APIError) Unwrap() error { return e.err.Err }

// Stack returns the formatted stack trace captured on creation.
func (e *APIError) Stack() []byte { return e.err.Stack() }

// newError classifies err. The message sent to clients is err's text for
// client errors and a generic text for server errors.
func newError(op string, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind, status := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	return &APIError{
		Op:      op,
		Kind:    kind,
		Status:  status,
		Message: msg,
		err:     goerrors.Wrap(err, 1),
	}
}

func classify(err error) (Kind, int) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return KindNotFound, http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrLimitExceeded),
		errors.Is(err, model.ErrInvalidCandidate),
		errors.Is(err, model.ErrUnknownTier),
		errors.Is(err, model.ErrUnknownPlatform),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrMissingID),
		errors.Is(err, enrichment.ErrEmptyAnchor),
		errors.Is(err, enrichment.ErrUnsupportedPlatform):
		return KindBadRequest, http.StatusBadRequest
	case errors.Is(err, repository.ErrStaleScore):
		return KindConflict, http.StatusConflict
	case errors.Is(err, queue.ErrQueueFull):
		return KindBackpressure, http.StatusTooManyRequests
	case errors.Is(err, ErrUnavailable), errors.Is(err, queue.ErrQueueClosed):
		return KindUnavailable, http.StatusServiceUnavailable
	}
	return KindInternal, http.StatusInternalServerError
}

// badRequest wraps a validation failure as ErrBadRequest.
func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
