package filegate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultContentType is stored when an upload declares no MIME type.
const DefaultContentType = "application/octet-stream"

// Object describes a stored object as reported by the backend.
type Object struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// PutObject carries the declared attributes of an upload.
// Size is -1 when the length is not known in advance.
type PutObject struct {
	Name        string
	ContentType string
	Size        int64
}

// PresignedURL is a time-boxed GET capability for a single object.
type PresignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MetaData is the persisted record the local backend keeps per object.
type MetaData struct {
	ID            uuid.UUID `json:"id"`
	Bucket        string    `json:"bucket"`
	Name          string    `json:"name"`
	ContentType   string    `json:"content_type"`
	Etag          string    `json:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Object converts a metadata record into the gateway's object view.
func (m MetaData) Object() Object {
	return Object{
		Name:         m.Name,
		Size:         m.FileSizeBytes,
		ContentType:  m.ContentType,
		ETag:         m.Etag,
		LastModified: m.UpdatedAt,
	}
}

// ObjectEntry is the input to MetaDataRepo.Upsert.
type ObjectEntry struct {
	Bucket      string
	Name        string
	Size        int64
	ETag        string
	ContentType string
}

// ListQuery pages through a bucket in name order, starting after After.
type ListQuery struct {
	Bucket string
	After  string
	Limit  int
}

// ListResult is one page of metadata; Next is the cursor for the next page.
type ListResult struct {
	Items []MetaData `json:"items"`
	Next  string     `json:"next,omitempty"`
}

// SaveResult reports what a file write stored.
type SaveResult struct {
	BytesWritten int64
	Etag         string
}

// NamePolicy decides which object names the gateway accepts.
type NamePolicy string

const (
	// NamePolicyPermissive accepts any non-empty name, byte for byte.
	NamePolicyPermissive NamePolicy = "permissive"
	// NamePolicyStrict rejects names that fail IsValidName.
	NamePolicyStrict NamePolicy = "strict"
)

// IsValid reports whether p is one of the known policies.
func (p NamePolicy) IsValid() bool {
	switch p {
	case NamePolicyPermissive, NamePolicyStrict:
		return true
	default:
		return false
	}
}

// ParseNamePolicy converts a config value to a NamePolicy.
func ParseNamePolicy(s string) (NamePolicy, error) {
	policy := NamePolicy(s)
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid name policy: %s (valid policies: permissive, strict)", s)
	}
	return policy, nil
}

// Allows reports whether name is acceptable under the policy.
func (p NamePolicy) Allows(name string) bool {
	if name == "" {
		return false
	}
	if p == NamePolicyStrict {
		return IsValidName(name)
	}
	return true
}
