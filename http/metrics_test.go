package http_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/filegate"
	filegatehttp "github.com/sagarc03/filegate/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_RoutesAndOperations(t *testing.T) {
	service := new(MockService)
	service.On("Upload", anyCtx, mock.Anything, mock.Anything).
		Return(filegate.Object{Name: "a.txt", Size: 5}, nil)
	service.On("PresignDownload", anyCtx, "a.txt").Return(presigned("http://x/a.txt"), nil)
	service.On("PresignDownload", anyCtx, "gone.txt").
		Return(filegate.PresignedURL{}, filegate.ErrNotFound)

	router := newRouter(filegatehttp.HandlerConfig{Metrics: filegatehttp.NewMetrics()}, service)

	for _, req := range []*http.Request{
		uploadRequest(t, "file", "a.txt", "text/plain", "hello"),
		httptest.NewRequest(http.MethodGet, "/download/a.txt", nil),
		httptest.NewRequest(http.MethodGet, "/download/gone.txt", nil),
		httptest.NewRequest(http.MethodGet, "/nowhere", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	out := scrape(t, router)

	assert.Contains(t, out, `filegate_http_requests_total{code="200",method="POST",route="/upload"} 1`)
	assert.Contains(t, out, `filegate_http_requests_total{code="200",method="GET",route="/download/{name}"} 1`)
	assert.Contains(t, out, `filegate_http_requests_total{code="404",method="GET",route="/download/{name}"} 1`)
	assert.NotContains(t, out, "gone.txt")
	assert.Contains(t, out, "filegate_upload_bytes_total 5")
	assert.Contains(t, out, `filegate_presigned_urls_total{result="ok"} 1`)
	assert.Contains(t, out, `filegate_presigned_urls_total{result="error"} 1`)
	assert.Contains(t, out, "filegate_http_inflight_requests")
}

func TestMetrics_DisabledHasNoEndpoint(t *testing.T) {
	router := newRouter(filegatehttp.HandlerConfig{}, new(MockService))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Registry(t *testing.T) {
	m := filegatehttp.NewMetrics()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "filegate_http_inflight_requests")
	assert.Contains(t, names, "filegate_upload_bytes_total")
}

func TestMetrics_AbortedStreamIsCounted(t *testing.T) {
	service := new(MockService)
	service.On("Objects", anyCtx).Return([]filegate.Object{{Name: "a"}}, errors.New("connection reset"))

	router := newRouter(filegatehttp.HandlerConfig{Metrics: filegatehttp.NewMetrics()}, service)

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files?stream=true", nil))
	})

	out := scrape(t, router)
	assert.Contains(t, out, `filegate_http_requests_total{code="aborted",method="GET",route="/files"} 1`)
	assert.Contains(t, out, `filegate_http_request_duration_seconds_count{code="aborted",method="GET",route="/files"} 1`)
	assert.Contains(t, out, "filegate_http_inflight_requests 1", "the scrape itself is the only inflight request")
}
