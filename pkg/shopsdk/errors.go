package shopsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/storefront/pkg/httpx"
)

// Failure classes. Every error returned by the SDK matches one of
// these through errors.Is, in addition to any cause it wraps.
var (
	// ErrAuthentication means the credentials were rejected (bad login).
	ErrAuthentication = errors.New("shopsdk: authentication failed")

	// ErrAuthorizationExpired means the server rejected the bearer credential.
	// The Transport answers it with one refresh-and-retry.
	ErrAuthorizationExpired = errors.New("shopsdk: authorization expired")

	// ErrRefreshFailed is terminal for the session: it is now anonymous.
	ErrRefreshFailed = errors.New("shopsdk: credential refresh failed")

	ErrNetwork    = errors.New("shopsdk: network failure")
	ErrServer     = errors.New("shopsdk: server failure")
	ErrValidation = errors.New("shopsdk: validation failed")
	ErrForbidden  = errors.New("shopsdk: forbidden")
	ErrNotFound   = errors.New("shopsdk: not found")

	// ErrSessionChanged is returned to a login or refresh whose result was
	// discarded because a newer login or logout happened while it was in flight.
	ErrSessionChanged = errors.New("shopsdk: session changed while request was in flight")

	// ErrPersist means the TokenStore could not be written or cleared. The
	// in-memory session is updated regardless.
	ErrPersist = errors.New("shopsdk: credential store failure")

	// ErrLineNotFound is a validation failure for edits to absent cart lines.
	ErrLineNotFound = fmt.Errorf("%w: cart line not found", ErrValidation)
)

// APIError is a non-2xx response from the storefront API.
type APIError struct {
	// Kind is one of the sentinel failure classes above.
	Kind error

	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Kind }

// parseErrorResponse maps a failed response onto the failure taxonomy.
// Public calls (login, register) treat 401 and 403 as bad credentials rather
// than an expired credential or a missing role.
func parseErrorResponse(status int, body []byte, public bool) error {
	msg := http.StatusText(status)

	var eb httpx.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Message) > 0 {
		msg = eb.Message.String()
	}

	return &APIError{
		Kind:       classify(status, public),
		StatusCode: status,
		Message:    msg,
	}
}

func classify(status int, public bool) error {
	switch {
	case (status == http.StatusUnauthorized || status == http.StatusForbidden) && public:
		return ErrAuthentication
	case status == http.StatusUnauthorized:
		return ErrAuthorizationExpired
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return ErrServer
	default:
		return ErrValidation
	}
}
