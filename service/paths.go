package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/sagarc03/manta"
)

// SplitPath returns the parent directory and the last segment of p.
func SplitPath(p string) (string, string) {
	parent, name := path.Split(p)
	return strings.TrimSuffix(parent, "/"), name
}

// AccountOf returns the first segment of p.
func AccountOf(p string) string {
	account, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return account
}

// IsStorageRoot reports whether p is an account's storage root.
func IsStorageRoot(p string) bool {
	return p == manta.StoragePrefix(AccountOf(p))
}

// CleanPath validates a namespace path and strips a trailing slash.
// Paths outside the account's storage root are not found; malformed names
// are invalid input.
func CleanPath(p string) (string, error) {
	account := AccountOf(p)
	if account == "" {
		return "", fmt.Errorf("clean path %q: %w", p, ErrNotFound)
	}

	root := manta.StoragePrefix(account)
	p = strings.TrimSuffix(p, "/")
	if p == root {
		return p, nil
	}

	rest, ok := strings.CutPrefix(p, root+"/")
	if !ok {
		return "", fmt.Errorf("clean path %q: %w", p, ErrNotFound)
	}
	if !manta.IsValidPath(rest) {
		return "", fmt.Errorf("clean path %q: %w", p, ErrInvalidInput)
	}
	return p, nil
}

// storageKey maps a namespace path to a relative file path.
func storageKey(p string) string {
	return strings.TrimPrefix(p, "/")
}
