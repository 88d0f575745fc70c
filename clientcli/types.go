package clientcli

import "time"

// Entry types reported in list results.
const (
	TypeDirectory = "directory"
	TypeObject    = "object"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	RemotePath  string // container/name; a trailing "/" appends the local file name
	ContentType string // optional, auto-detect if empty
	Recursive   bool
	Parents     bool // create the container and missing directories first
	Metadata    map[string]string
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string `json:"local_path"`
	RemotePath  string `json:"remote_path"`
	ContentType string `json:"content_type"`
	ETag        string `json:"etag"`
	MD5         string `json:"content_md5"`
	Size        int64  `json:"size_bytes"`
	Err         error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	RemotePath string
	LocalPath  string // empty = derive from remote, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	RemotePath  string `json:"remote_path"`
	LocalPath   string `json:"local_path"`
	ETag        string `json:"etag"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Paths []string
}

// DeleteResult represents the result of deleting a single object.
type DeleteResult struct {
	Path    string `json:"path"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// MkdirOptions configures a mkdir operation.
type MkdirOptions struct {
	Path    string
	Parents bool
}

// ListOptions configures a list operation.
type ListOptions struct {
	Path      string // empty lists the containers
	Recursive bool
}

// ListResult holds the entries below a path.
type ListResult struct {
	Path  string      `json:"path"`
	Items []EntryInfo `json:"items"`
}

// EntryInfo is one listed directory or object.
type EntryInfo struct {
	Path         string     `json:"path"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	ETag         string     `json:"etag,omitempty"`
	Size         int64      `json:"size_bytes"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// InfoResult holds the metadata of one object.
type InfoResult struct {
	Path         string            `json:"path"`
	URI          string            `json:"uri"`
	ContentType  string            `json:"content_type"`
	ETag         string            `json:"etag"`
	MD5          string            `json:"content_md5,omitempty"`
	Size         int64             `json:"size_bytes"`
	LastModified *time.Time        `json:"last_modified,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
