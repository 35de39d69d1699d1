package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired marks a 401 from any operation. The gateway has
// already cleared the session and fired the expiry callback by the time
// callers see it.
var ErrSessionExpired = errors.New("session expired")

// Error is the typed failure every gateway operation returns. Status is
// zero when the server could not be reached at all.
type Error struct {
	Op      string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("gateway %s: %d: %s", e.Op, e.Status, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Unreachable reports whether the failure was a transport one: no HTTP
// response was received, so the server may or may not have seen the
// request. The SOS flow branches on this.
func (e *Error) Unreachable() bool { return e.Status == 0 }

// errorBody is the union of the error shapes the backend has been
// observed to emit.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// normalizeMessage extracts a human-readable message from a failed
// response with a fixed precedence: structured detail, then message,
// then error, then the HTTP status text, then the transport error.
func normalizeMessage(status int, body []byte, cause error) string {
	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		switch {
		case eb.Detail != "":
			return eb.Detail
		case eb.Message != "":
			return eb.Message
		case eb.Error != "":
			return eb.Error
		}
	}
	if status > 0 {
		if text := http.StatusText(status); text != "" {
			return text
		}
		return fmt.Sprintf("HTTP %d", status)
	}
	if cause != nil {
		return cause.Error()
	}
	return "An error occurred. Please try again."
}
