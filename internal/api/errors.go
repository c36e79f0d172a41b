package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ValidationError reports malformed local input caught before any network
// call (unsupported file type, oversized upload, missing preconditions).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// AuthenticationError reports bad credentials or an irrecoverably expired
// session. Message is the server-supplied text when one exists.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// RemoteError is any non-2xx response from the backend. Message is extracted
// from the server error envelope; field-level messages are joined.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// NetworkError means no response arrived at all: connectivity or timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Message turns any error from this package into the string shown to the
// user, with the same status fallbacks the backend's clients rely on.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Error()
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			return remote.Message
		}
		switch remote.StatusCode {
		case http.StatusUnauthorized:
			return "Session expired. Please log in again."
		case http.StatusForbidden:
			return "You don't have permission to do this."
		case http.StatusNotFound:
			return "Resource not found."
		case http.StatusInternalServerError:
			return "Server error. Please try again later."
		}
		return remote.Error()
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Cannot connect to the server. Please check your connection."
	}
	return err.Error()
}

// parseEnvelope extracts a human-readable message from a decoded error body.
// Recognizes {"error": "..."} and {"detail": "..."}, then falls back to
// joining DRF-style field errors {"field": ["msg", ...]}.
func parseEnvelope(body map[string]any) string {
	if s, ok := body["error"].(string); ok && s != "" {
		return s
	}
	if s, ok := body["detail"].(string); ok && s != "" {
		return s
	}

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		switch v := body[k].(type) {
		case string:
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		case []any:
			var parts []string
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				lines = append(lines, fmt.Sprintf("%s: %s", k, strings.Join(parts, ", ")))
			}
		}
	}
	return strings.Join(lines, "\n")
}
