package service

import (
	"context"
	"io"
)

// NodeRepo defines the interface for managing namespace metadata persistence.
// Implementations must handle concurrent access safely and ensure data consistency.
//
// All methods accept a context for cancellation and timeout control.
type NodeRepo interface {
	// Get retrieves the node at path.
	// Returns ErrNotFound if the path doesn't exist.
	Get(ctx context.Context, path string) (Node, error)

	// Upsert creates or replaces the node at entry.Path. The bool result is
	// true when a new node was created. The creation time of a replaced node
	// is kept.
	Upsert(ctx context.Context, entry NodeEntry) (Node, bool, error)

	// Delete removes the node at path.
	// Returns ErrNotFound if the path doesn't exist.
	Delete(ctx context.Context, path string) error

	// List returns the children of q.Parent ordered by name.
	List(ctx context.Context, q ListQuery) ([]Node, error)

	// CountChildren returns the number of direct children of parent.
	CountChildren(ctx context.Context, parent string) (int, error)
}

// FileStorage defines the interface for object payload storage.
// Paths are relative, slash separated keys.
type FileStorage interface {
	// Get opens a payload for reading.
	// Returns ErrNotFound if the file doesn't exist.
	// The caller is responsible for closing the returned ReadSeekCloser.
	Get(ctx context.Context, path string) (io.ReadSeekCloser, error)

	// Write stores content at path, replacing any previous payload, and
	// returns the byte count and MD5 digest.
	// Implementations should write atomically and clean up partial writes.
	Write(ctx context.Context, path string, content io.Reader) (SaveResult, error)

	// Delete removes a payload.
	// Returns ErrNotFound if the file doesn't exist.
	Delete(ctx context.Context, path string) error

	// List returns every stored payload. It is used to rebuild metadata
	// (see Service.Populate) and can be expensive.
	List(ctx context.Context) ([]ObjectEntry, error)
}
