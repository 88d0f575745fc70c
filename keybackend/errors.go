package keybackend

import "errors"

var (
	// ErrKeyNotFound is returned when a key id or key file does not exist.
	ErrKeyNotFound = errors.New("key not found")
	// ErrInvalidPublicKey is returned when a public key is not an RSA authorized key.
	ErrInvalidPublicKey = errors.New("invalid public key")
)
