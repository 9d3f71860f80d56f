package lambdacloud

import (
	"fmt"
)

// APIError is the error payload the API returns with any non-2xx status.
// The API does not distinguish error classes beyond Code; callers that need to
// branch on authentication, not-found or validation failures inspect Code.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`

	// StatusCode is the HTTP status the error arrived with. It is not part of the payload.
	StatusCode int `json:"-"`
}

// Error renders "<code>: <message>", followed by " - <suggestion>" when a suggestion is present
func (e *APIError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Suggestion != "" {
		msg += " - " + e.Suggestion
	}
	return msg
}

// MalformedResponseError is returned when a response body cannot be decoded
// into the envelope its status code calls for.
type MalformedResponseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed response (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("malformed response (status %d): %v", e.StatusCode, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
