package core

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ReencodeURL re-encodes URLs for RFC3986 compliance; as CurseForge URLs aren't properly encoded
func ReencodeURL(u string) (string, error) {
	// Go's URL library isn't entirely RFC3986 compliant :(
	// Manually replace [ and ] with %5B and %5D
	u = strings.ReplaceAll(u, "[", "%5B")
	u = strings.ReplaceAll(u, "]", "%5D")
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %s, %v", u, err)
	}
	return parsed.String(), nil
}

// CleanPackURL fixes up URLs as they are written in pack definitions, which are frequently HTML escaped
// and contain raw spaces.
func CleanPackURL(u string) string {
	u = strings.ReplaceAll(u, "&amp;", "&")
	return strings.ReplaceAll(u, " ", "%20")
}

// FileNameFromURL returns the last path segment of a URL, unescaped where possible
func FileNameFromURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return path.Base(u)
	}
	name := path.Base(parsed.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
