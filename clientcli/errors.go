package clientcli

import "errors"

// Errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
)

// Errors for configuration validation.
var (
	ErrAccountRequired = errors.New("account is required")
	ErrKeyPathRequired = errors.New("key path is required")
	ErrConfigRequired  = errors.New("config is required")
)

// Errors for input validation.
var (
	ErrNoPaths          = errors.New("no paths provided")
	ErrEmptyPath        = errors.New("path is required")
	ErrNoObjectName     = errors.New("path must name an object inside a container")
	ErrObjectNotFound   = errors.New("object not found")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
