package clientcli

import "time"

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath string
	// Name is the object name; empty means the base name of LocalPath.
	// With Recursive it is a prefix for the relative paths.
	Name        string
	ContentType string // optional, auto-detect if empty
	Recursive   bool
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Name      string `json:"name"`
	Size      int64  `json:"size_bytes"`
	Err       error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Name      string
	LocalPath string // empty = derive from name, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Name        string `json:"name"`
	LocalPath   string `json:"local_path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// FileInfo is one entry of the gateway listing.
type FileInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// ListResult contains the full listing.
type ListResult struct {
	Items []FileInfo `json:"items"`
}

// TotalSize calculates the total size of all items in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Items {
		total += item.Size
	}
	return total
}

// URLResult is a download URL minted by the gateway.
type URLResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// uploadResponse mirrors POST /upload.
type uploadResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// downloadResponse mirrors GET /download/{name}.
type downloadResponse struct {
	URL string `json:"url"`
}
