package service

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrParentNotFound is returned when the parent directory of a new entry is missing
	ErrParentNotFound = errors.New("parent directory not found")
	// ErrDirectoryNotEmpty is returned when deleting a directory that still has entries
	ErrDirectoryNotEmpty = errors.New("directory not empty")
	// ErrConflict is returned when an object would replace a directory or the reverse
	ErrConflict = errors.New("entry type conflict")
	// ErrChecksumMismatch is returned when an upload does not match its Content-MD5
	ErrChecksumMismatch = errors.New("content md5 mismatch")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
