package manta

import (
	"errors"
	"log/slog"
)

// Operation names a REST call of the Client.
type Operation string

const (
	OpListRoot        Operation = "ListRoot"
	OpListContainer   Operation = "ListContainer"
	OpCreateContainer Operation = "CreateContainer"
	OpDeleteContainer Operation = "DeleteContainer"
	OpContainerExists Operation = "ContainerExists"
	OpCreateDirectory Operation = "CreateDirectory"
	OpDeleteDirectory Operation = "DeleteDirectory"
	OpDirectoryExists Operation = "DirectoryExists"
	OpPutBlob         Operation = "PutBlob"
	OpGetBlob         Operation = "GetBlob"
	OpGetBlobMetadata Operation = "GetBlobMetadata"
	OpRemoveBlob      Operation = "RemoveBlob"
	OpBlobExists      Operation = "BlobExists"
)

// Not-found policy. A 404 from the service (and, for the calls that decode a
// body or headers, a malformed response) is replaced by a fixed value:
//
//	ListRoot, ListContainer                  empty slice
//	GetBlob, GetBlobMetadata                 nil
//	ContainerExists, DirectoryExists,
//	BlobExists                               false
//	DeleteContainer, DeleteDirectory,
//	RemoveBlob                               true
//
// CreateContainer, CreateDirectory and PutBlob have no fallback.

// withNotFoundFallback runs call and substitutes sentinel for a not-found or
// decode error. Any other error is returned unchanged.
func withNotFoundFallback[T any](logger *slog.Logger, op Operation, sentinel T, call func() (T, error)) (T, error) {
	v, err := call()
	if err == nil {
		return v, nil
	}

	if errors.Is(err, ErrNotFound) {
		logger.Debug("resource not found", "op", op)
		return sentinel, nil
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		logger.Warn("malformed response treated as not found", "op", op, "err", err)
		return sentinel, nil
	}

	var zero T
	return zero, err
}
