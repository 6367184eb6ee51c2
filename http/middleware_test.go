package http_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	filegatehttp "github.com/sagarc03/filegate/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLogger(t *testing.T) {
	logs := captureLogs(t)

	handler := filegatehttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/files", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.EqualValues(t, len("short and stout"), entry["bytes"])
}

func TestRequestLogger_ServerErrorsWarn(t *testing.T) {
	logs := captureLogs(t)

	handler := filegatehttp.RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files", nil))

	assert.True(t, strings.Contains(logs.String(), `"level":"WARN"`))
}

func TestMetrics(t *testing.T) {
	metrics := filegatehttp.NewMetrics()
	service := new(MockService)
	service.On("PresignDownload", anyCtx, "a.txt").Return(presigned("http://s3/files/a.txt"), nil)

	handler := filegatehttp.NewHandler(&filegatehttp.HandlerConfig{Metrics: metrics}, service)
	router := handler.Router()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/download/a.txt", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `filegate_http_requests_total{code="200",method="GET",route="/download/{name}"} 1`)
	assert.Contains(t, body, `filegate_presigned_urls_total{result="ok"} 1`)
	assert.NotContains(t, body, "a.txt")
}
