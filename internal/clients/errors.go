package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds for calls to external services. Callers decide per kind
// whether to skip the item or abort the stage.
var (
	ErrTransport    = errors.New("transport failure")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUpstream     = errors.New("upstream error")
	ErrMalformed    = errors.New("malformed response")
)

// WrapError keeps the failure kind matchable with errors.Is while adding
// operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", operation, kind)
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// IsFatal reports whether the failure should stop a stage rather than skip
// a single item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// KindOf names the failure kind for logging.
func KindOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrTransport):
		return "transport"
	}
	return "unknown"
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrUpstream
	}
}

// resourceStatusError classifies a failed Reddit resource request. Reddit
// answers 403 for private, quarantined and banned communities, which rules out
// that resource only; bad credentials surface as 401 or a token error.
func resourceStatusError(operation string, status int) error {
	kind := kindForStatus(status)
	if status == http.StatusForbidden {
		kind = ErrForbidden
	}
	return WrapError(kind, operation, fmt.Errorf("status code %d", status))
}
