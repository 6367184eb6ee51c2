package clientcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultTimeout bounds each HTTP exchange, including a download body.
const DefaultTimeout = 30 * time.Second

// Client is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the transport, for example with one that trusts a
// private CA. It overrides the configured timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New applies Config defaults and then opts, in order.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload uploads file(s) to the gateway.
// With Recursive, a directory is walked and each file keeps its path relative
// to LocalPath, under Name as a prefix. One failed file does not stop the walk;
// its UploadResult carries the error.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.LocalPath)
	}

	result, err := c.uploadSingle(ctx, opts.LocalPath, name, opts.ContentType)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		return c.Upload(ctx, UploadOptions{LocalPath: opts.LocalPath, Name: opts.Name, ContentType: opts.ContentType})
	}

	var results []UploadResult
	prefix := strings.Trim(opts.Name, "/")

	walkErr := filepath.WalkDir(opts.LocalPath, func(localPath string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, relErr := filepath.Rel(opts.LocalPath, localPath)
		if relErr != nil {
			results = append(results, UploadResult{
				LocalPath: localPath,
				Err:       fmt.Errorf("calculate relative path: %w", relErr),
			})
			return nil
		}

		name := filepath.ToSlash(relPath)
		if prefix != "" {
			name = prefix + "/" + name
		}

		result, uploadErr := c.uploadSingle(ctx, localPath, name, "")
		if uploadErr != nil {
			result = UploadResult{LocalPath: localPath, Name: name, Err: uploadErr}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

// uploadSingle streams one file as the multipart field "file".
func (c *Client) uploadSingle(ctx context.Context, localPath, name, contentType string) (UploadResult, error) {
	file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}

	if contentType == "" {
		contentType = detectContentType(localPath)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeFilePart(mw, name, contentType, file))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/upload", pr)
	if err != nil {
		_ = pr.Close()
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp uploadResponse
	if err := c.doJSON(req, &resp); err != nil {
		_ = pr.CloseWithError(err)
		return UploadResult{}, err
	}

	return UploadResult{
		LocalPath: localPath,
		Name:      resp.Name,
		Size:      info.Size(),
	}, nil
}

// writeFilePart writes content as the only part of the form and closes it.
func writeFilePart(mw *multipart.Writer, name, contentType string, content io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": name,
	}))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err = io.Copy(part, content); err != nil {
		return err
	}
	return mw.Close()
}

// Health probes GET /healthz and fails unless the gateway answers 200.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}

	var status struct {
		Status string `json:"status"`
	}
	return c.doJSON(req, &status)
}

// List returns every file in the gateway's bucket.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/files", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	items := make([]FileInfo, 0)
	if err := c.doJSON(req, &items); err != nil {
		return nil, err
	}

	return &ListResult{Items: items}, nil
}

// PresignURL asks the gateway for a download URL for name.
func (c *Client) PresignURL(ctx context.Context, name string) (*URLResult, error) {
	if name == "" {
		return nil, fmt.Errorf("presign: %w", ErrEmptyName)
	}

	target := c.endpoint + "/download/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var resp downloadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}

	return &URLResult{Name: name, URL: resp.URL}, nil
}

// Download mints a URL for opts.Name and fetches it.
// With LocalPath "-" the open body is returned for the caller to stream and
// close; otherwise it is saved to disk and the returned reader is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Name == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyName)
	}

	presigned, err := c.PresignURL(ctx, opts.Name)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, presigned.URL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Name:        opts.Name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}
	defer func() { _ = resp.Body.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(filepath.FromSlash(opts.Name))
	}
	result.LocalPath = localPath

	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create directory: %w", err)
		}
	}

	file, err := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, nil, fmt.Errorf("create file: %w", err)
	}

	written, copyErr := io.Copy(file, resp.Body)
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if err := file.Close(); err != nil {
		return nil, nil, fmt.Errorf("close file: %w", err)
	}

	result.Size = written
	return result, nil, nil
}

// doJSON executes req and decodes a 200 JSON body into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func HasUploadErrors(results []UploadResult) bool {
	return slices.ContainsFunc(results, func(r UploadResult) bool { return r.Err != nil })
}

// NormalizeLocalToRemotePath turns a local path into an object name: slashes
// become forward, the path is cleaned, and any leading "/", "./" or "../"
// segments are dropped. "." and ".." normalize to "".
func NormalizeLocalToRemotePath(localPath string) string {
	name := path.Clean(filepath.ToSlash(localPath))

	for {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimPrefix(name, "/"), "./"), "../")
		if trimmed == name {
			break
		}
		name = trimmed
	}

	if name == "." || name == ".." {
		return ""
	}
	return name
}

func detectContentType(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
