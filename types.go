package manta

import (
	"io"
	"net/http"
	"net/url"
	"time"
)

// Entry types reported by directory listings.
const (
	EntryTypeDirectory = "directory"
	EntryTypeObject    = "object"
)

// MtimeLayout is the layout of the mtime field in listings.
// Fractional seconds have a variable number of digits.
const MtimeLayout = "2006-01-02T15:04:05.999Z"

// StorageEntry is one row of a directory listing.
type StorageEntry struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Mtime string `json:"mtime"`
	ETag  string `json:"etag,omitempty"`
	Size  *int64 `json:"size,omitempty"`
}

// LastModified parses Mtime. It returns nil when the field is empty or malformed.
func (e StorageEntry) LastModified() *time.Time {
	if e.Mtime == "" {
		return nil
	}
	t, err := time.Parse(MtimeLayout, e.Mtime)
	if err != nil {
		return nil
	}
	return &t
}

// StorageKind classifies an entry of the generic blob store.
type StorageKind string

const (
	KindFolder  StorageKind = "folder"
	KindBlob    StorageKind = "blob"
	KindUnknown StorageKind = ""
)

// StorageMetadata is a listing row in blob store terms.
type StorageMetadata struct {
	Kind         StorageKind `json:"kind"`
	Name         string      `json:"name"`
	ETag         string      `json:"etag,omitempty"`
	Size         *int64      `json:"size,omitempty"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
	LastModified *time.Time  `json:"last_modified,omitempty"`
}

// PageSet is one page of a listing. The service always returns complete
// listings, so NextMarker is always empty.
type PageSet struct {
	Items      []StorageMetadata `json:"items"`
	NextMarker string            `json:"next_marker,omitempty"`
}

// ContentMetadata describes a blob's payload.
type ContentMetadata struct {
	Type   string `json:"content_type,omitempty"`
	Length *int64 `json:"content_length,omitempty"`
	MD5    []byte `json:"content_md5,omitempty"`
}

// BlobMetadata describes a stored blob.
type BlobMetadata struct {
	Name         string            `json:"name"`
	Container    string            `json:"container"`
	Kind         StorageKind       `json:"kind"`
	Content      ContentMetadata   `json:"content"`
	ETag         string            `json:"etag,omitempty"`
	LastModified *time.Time        `json:"last_modified,omitempty"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
	URI          *url.URL          `json:"-"`
}

// Blob is a blob's metadata together with its payload.
// Payload is owned by the caller, who must close it.
type Blob struct {
	Metadata BlobMetadata
	Payload  io.ReadCloser
	Headers  http.Header
}

// PutOptions configures PutBlob.
type PutOptions struct {
	// Multipart requests a chunked upload. The service does not offer one
	// and PutBlob fails with ErrUnsupported when it is set.
	Multipart bool
}

// GetOptions configures GetBlob. The service ignores range and
// conditional options; the type exists for contract compatibility.
type GetOptions struct{}

// ListContainerOptions configures ListContainer. Listings are always complete.
type ListContainerOptions struct{}

// CreateContainerOptions configures CreateContainerInLocation.
type CreateContainerOptions struct{}

// Location is a placement region.
type Location struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	ISO3166     []string `json:"iso_3166_codes"`
}

// ConsistencyModel describes read-after-write guarantees.
type ConsistencyModel string

const (
	ConsistencyStrict   ConsistencyModel = "strict"
	ConsistencyEventual ConsistencyModel = "eventual"
)
