package manta

import (
	"strings"
	"unicode/utf8"
)

// IsValidPath validates a blob name, which may contain "/" separated segments.
// It checks that the path:
//   - is not empty, ".", or "/"
//   - does not start or end with "/"
//   - does not contain "//" (empty segments)
//   - has no "." or ".." segments
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return false
		}
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	return true
}

// IsValidContainer validates a container name: a single valid path segment.
func IsValidContainer(name string) bool {
	return IsValidPath(name) && !strings.Contains(name, "/")
}
