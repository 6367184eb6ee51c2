package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/filegate"
)

// ObjectsPath is where signed object URLs of the local backend are served.
const ObjectsPath = "/objects"

// streamFlushEvery is the number of listing entries written between flushes.
const streamFlushEvery = 100

type Service interface {
	Upload(ctx context.Context, obj filegate.PutObject, content io.Reader) (filegate.Object, error)
	List(ctx context.Context) ([]filegate.Object, error)
	Objects(ctx context.Context) iter.Seq2[filegate.Object, error]
	PresignDownload(ctx context.Context, name string) (filegate.PresignedURL, error)
}

// ObjectOpener serves objects behind self-signed URLs.
type ObjectOpener interface {
	OpenSigned(ctx context.Context, method, objectPath string, query url.Values) (filegate.Object, io.ReadSeekCloser, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"gte=0"`
}

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize caps the request body of POST /upload; 0 disables the cap.
	MaxUploadSize int64
	// StreamList makes GET /files stream without ?stream=true.
	StreamList     bool
	DownloadErrors DownloadErrors
	// Objects, when set, serves GET/HEAD under ObjectsPath.
	Objects ObjectOpener
	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *Metrics
}

// Handler provides the gateway's HTTP endpoints.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.DownloadErrors == "" {
		cfg.DownloadErrors = DownloadErrorsPrecise
	}

	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with every route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}
	r.Use(RequestLogger)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Post("/upload", h.handleUpload)
	r.Get("/files", h.handleList)
	r.Get("/download/{name}", h.handleDownload)
	r.Get("/healthz", h.handleHealth)

	if h.config.Objects != nil {
		r.Get(ObjectsPath+"/*", h.handleObject)
		r.Head(ObjectsPath+"/*", h.handleObject)
	}

	if h.config.Metrics != nil {
		r.Handle("/metrics", h.config.Metrics.Handler())
	}

	return r
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Upload exceeds the size limit")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			WriteError(w, http.StatusBadRequest, "missing_file", "No file uploaded")
		default:
			slog.Warn("malformed upload", "error", err)
			WriteError(w, http.StatusBadRequest, "invalid_form", "Malformed multipart form")
		}
		return
	}
	defer func() { _ = file.Close() }()
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	obj := filegate.PutObject{
		Name:        originalFilename(header),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	stored, err := h.service.Upload(r.Context(), obj, file)
	if err != nil {
		HandleError(w, err)
		return
	}

	h.config.Metrics.observeUpload(stored.Size)

	_ = WriteJSON(w, http.StatusOK, UploadResponse{Message: "upload completed", Name: stored.Name})
}

// originalFilename returns the filename exactly as the client sent it.
// multipart.FileHeader.Filename has directory components stripped.
func originalFilename(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err == nil && params["filename"] != "" {
		return params["filename"]
	}
	return header.Filename
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	stream := h.config.StreamList
	if s := r.URL.Query().Get("stream"); s != "" {
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "stream must be a boolean")
			return
		}
		stream = parsed
	}

	if stream {
		h.streamList(w, r)
		return
	}

	objects, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	entries := make([]FileEntry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, fileEntry(obj))
	}

	_ = WriteJSON(w, http.StatusOK, entries)
}

// streamList writes the listing as a JSON array one element at a time. A
// failure before the first element yields a normal error response; a later
// failure aborts the connection so the client never sees a well-formed body.
func (h *Handler) streamList(w http.ResponseWriter, r *http.Request) {
	next, stop := iter.Pull2(h.service.Objects(r.Context()))
	defer stop()

	obj, err, ok := next()
	if ok && err != nil {
		HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	_, _ = io.WriteString(w, "[")

	for written := 0; ok; written++ {
		if err != nil {
			slog.Error("list stream aborted", "error", err, "written", written)
			panic(http.ErrAbortHandler)
		}

		if written > 0 {
			_, _ = io.WriteString(w, ",")
		}

		data, marshalErr := json.Marshal(fileEntry(obj))
		if marshalErr != nil {
			slog.Error("list stream aborted", "error", marshalErr, "written", written)
			panic(http.ErrAbortHandler)
		}
		if _, writeErr := w.Write(data); writeErr != nil {
			slog.Warn("list stream write failed", "error", writeErr)
			return
		}

		if (written+1)%streamFlushEvery == 0 {
			_ = rc.Flush()
		}

		obj, err, ok = next()
	}

	_, _ = io.WriteString(w, "]\n")
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// chi routes on the escaped path when one is present.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid object name")
			return
		}
		name = unescaped
	}

	presigned, err := h.service.PresignDownload(r.Context(), name)
	if err != nil {
		h.config.Metrics.observePresign("error")
		if h.config.DownloadErrors == DownloadErrorsConflate {
			slog.Error("presign failed", "name", name, "error", err)
			WriteError(w, http.StatusNotFound, "not_found", "File not found")
			return
		}
		HandleError(w, err)
		return
	}

	h.config.Metrics.observePresign("ok")

	_ = WriteJSON(w, http.StatusOK, DownloadResponse{URL: presigned.URL})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleObject(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, ObjectsPath)

	obj, content, err := h.config.Objects.OpenSigned(r.Context(), r.Method, objectPath, r.URL.Query())
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("ETag", `"`+obj.ETag+`"`)
	w.Header().Set("Content-Type", obj.ContentType)

	http.ServeContent(w, r, path.Base(obj.Name), obj.LastModified, content)
}
