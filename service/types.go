package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/manta"
)

// Node is one entry of the namespace: a directory or an object.
type Node struct {
	ID          uuid.UUID         `json:"id"`
	Path        string            `json:"path"`
	Parent      string            `json:"parent"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	ContentType string            `json:"content_type"`
	ETag        string            `json:"etag"`
	ContentMD5  string            `json:"content_md5,omitempty"`
	Size        int64             `json:"size"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// IsDirectory reports whether the node is a directory.
func (n Node) IsDirectory() bool {
	return n.Type == manta.EntryTypeDirectory
}

// Entry converts the node to a listing row.
func (n Node) Entry() manta.StorageEntry {
	e := manta.StorageEntry{
		Name:  n.Name,
		Type:  n.Type,
		Mtime: n.UpdatedAt.UTC().Format(manta.MtimeLayout),
	}
	if !n.IsDirectory() {
		size := n.Size
		e.ETag = n.ETag
		e.Size = &size
	}
	return e
}

// NodeEntry is the data written by NodeRepo.Upsert. ID and timestamps are
// assigned by the repository.
type NodeEntry struct {
	Path        string
	Type        string
	ContentType string
	ETag        string
	ContentMD5  string
	Size        int64
	Metadata    map[string]string
}

// ListQuery selects the children of a directory. Children are ordered by
// name; Marker skips every name up to and including it. Limit <= 0 means no
// limit.
type ListQuery struct {
	Parent string
	Marker string
	Limit  int
}

// ObjectEntry describes a file found in storage.
type ObjectEntry struct {
	Path        string
	Size        int64
	MD5         []byte
	ContentType string
}

// SaveResult is the outcome of FileStorage.Write.
type SaveResult struct {
	BytesWritten int64
	MD5          []byte
}

// PutObject describes an upload.
type PutObject struct {
	Path        string
	ContentType string
	// ContentMD5 is the base64 digest the client sent, if any.
	ContentMD5 string
	Metadata   map[string]string
}

// Tables holds configurable table names for namespace storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Nodes string `mapstructure:"nodes"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Nodes == "" {
		return errors.New("validate tables: nodes table name cannot be empty")
	}

	if !IsValidTableName(t.Nodes) {
		return fmt.Errorf("validate tables: invalid nodes table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Nodes)
	}

	return nil
}
