package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Reads collapse all of the technical ones into an empty
// result; writes return them to the caller.
var (
	ErrTransport         = errors.New("content: transport failure")
	ErrServerRejection   = errors.New("content: server rejected request")
	ErrMalformedResponse = errors.New("content: malformed response")
	ErrValidation        = errors.New("content: validation failed")
)

// StatusError is a non-2xx response. Message is the server's own text when
// the body carried one.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrServerRejection
}

// ValidationError is raised before any request is sent. Message is meant for
// the person filling in the form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ServerMessage returns the text the server sent with a rejection, if any.
func ServerMessage(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}

// serverMessage pulls "message" or "error" out of a JSON body, falling back
// to the trimmed raw body.
func serverMessage(body []byte) string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &m); err == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
		return ""
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}
