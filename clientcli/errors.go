package clientcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
	ErrConfigRequired  = errors.New("config is required")
	ErrEmptyPath       = errors.New("local path is required")
	ErrEmptyName       = errors.New("object name is required")
)

// APIError is any non-200 answer from the gateway or from a download URL.
// Code and Message come from the gateway's JSON error body when it has one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	detail := e.Message
	if detail == "" {
		detail = e.Body
	}
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, detail)
}

// Is matches any *APIError with the same status code, so
// errors.Is(err, ErrNotFound) works on responses.
func (e *APIError) Is(target error) bool {
	var t *APIError
	return errors.As(target, &t) && t.StatusCode == e.StatusCode
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Status sentinels for errors.Is.
var (
	ErrNotFound   = &APIError{StatusCode: http.StatusNotFound}
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}
	ErrForbidden  = &APIError{StatusCode: http.StatusForbidden}
	ErrServer     = &APIError{StatusCode: http.StatusInternalServerError}
)

func parseServerError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code, apiErr.Message = payload.Error, payload.Message
	}
	return apiErr
}
