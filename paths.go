package manta

import (
	"fmt"
	"net/url"
	"strings"
)

// StorageRoot is the path segment that follows the account on every storage URL.
const StorageRoot = "stor"

// StoragePrefix returns "/<account>/stor".
func StoragePrefix(account string) string {
	return "/" + account + "/" + StorageRoot
}

func hasStoragePrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// NormalizePath prefixes path with the account's storage root unless it is
// already there. Normalizing a normalized path returns it unchanged.
func NormalizePath(account, path string) string {
	prefix := StoragePrefix(account)
	if hasStoragePrefix(path, prefix) {
		return path
	}
	return prefix + path
}

// NormalizeURL returns u with the account's storage root spliced in front of
// its path. The splice is textual: the escaped storage prefix is inserted at
// the last occurrence of the escaped path inside the URL (query and fragment
// excluded). Path segments are never cleaned or joined.
//
// The returned URL is always a copy; u is never modified.
func NormalizeURL(account string, u *url.URL) (*url.URL, error) {
	out := *u
	if hasStoragePrefix(u.Path, StoragePrefix(account)) {
		return &out, nil
	}

	prefix := "/" + url.PathEscape(account) + "/" + StorageRoot

	path := u.EscapedPath()
	if path == "" {
		out.Path = StoragePrefix(account)
		out.RawPath = ""
		return &out, nil
	}

	bare := out
	bare.RawQuery = ""
	bare.ForceQuery = false
	bare.Fragment = ""
	bare.RawFragment = ""
	raw := bare.String()

	i := strings.LastIndex(raw, path)
	if i < 0 {
		return nil, fmt.Errorf("normalize url %q: path not found", raw)
	}

	spliced, err := url.Parse(raw[:i] + prefix + raw[i:])
	if err != nil {
		return nil, fmt.Errorf("normalize url: %w", err)
	}
	spliced.RawQuery = u.RawQuery
	spliced.ForceQuery = u.ForceQuery
	spliced.Fragment = u.Fragment
	spliced.RawFragment = u.RawFragment
	return spliced, nil
}
