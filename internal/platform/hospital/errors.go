package hospital

import (
	"errors"
	"fmt"
)

// ErrNotConfigured reports that the hospital API integration is disabled or
// unconfigured for an organization. Callers must treat it as a normal branch
// (empty external results), never as a failure.
var ErrNotConfigured = errors.New("hospital api not configured")

// maxErrorBody bounds how much of an upstream response body is carried in
// error messages.
const maxErrorBody = 100

// AuthError reports a failed login against the upstream hospital system, or a
// request that stayed unauthorized after the single permitted re-login.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("hospital api authentication failed (status %d)", e.Status)
	}
	return fmt.Sprintf("hospital api authentication failed (status %d): %s", e.Status, e.Body)
}

// RequestError reports any other non-2xx upstream response.
type RequestError struct {
	Status int
	Reason string
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("hospital api error: %d %s - %s", e.Status, e.Reason, e.Body)
}

// truncateBody trims an upstream body for inclusion in errors.
func truncateBody(body string) string {
	if body == "" {
		return "no response body"
	}
	if len(body) > maxErrorBody {
		return body[:maxErrorBody]
	}
	return body
}
