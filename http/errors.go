package http

import "errors"

// ErrAccountMismatch is returned when a signed request addresses another account's namespace.
var ErrAccountMismatch = errors.New("account mismatch")
