package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sagarc03/filegate"
)

// ErrorResponse is the body of every non-2xx JSON answer. Error is a stable
// machine code; Message is for humans and never carries backend details.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// FileEntry is one element of the GET /files listing.
type FileEntry struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// DownloadResponse is returned by GET /download/{name}.
type DownloadResponse struct {
	URL string `json:"url"`
}

func fileEntry(obj filegate.Object) FileEntry {
	return FileEntry{Name: obj.Name, Size: obj.Size, LastModified: obj.LastModified}
}

// errorStatus maps sentinel errors to responses. The first match wins.
var errorStatus = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{filegate.ErrNotFound, http.StatusNotFound, "not_found", "Object not found"},
	{filegate.ErrInvalidInput, http.StatusBadRequest, "invalid_input", "Invalid input"},
	{filegate.ErrUnauthorized, http.StatusForbidden, "unauthorized", "Invalid or expired signature"},
	{filegate.ErrUnavailable, http.StatusInternalServerError, "storage_unavailable", "Storage unavailable"},
}

// HandleError answers with the response mapped to err. The full error is only
// logged: warn for client mistakes, error for server faults.
func HandleError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// The client hung up; there is nobody to answer.
		slog.Debug("request cancelled", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			logRequestError(m.status, err)
			WriteError(w, m.status, m.code, m.message)
			return
		}
	}

	logRequestError(http.StatusInternalServerError, err)
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func logRequestError(status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
		return
	}
	slog.Warn("request rejected", "status", status, "error", err)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	if err := WriteJSON(w, status, ErrorResponse{Error: code, Message: message}); err != nil {
		slog.Error("write error response", "error", err)
	}
}

// WriteJSON sends data as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
