package report

import (
	"net/url"
	"strings"
)

// AssetPrefix is the flat directory every local report file is served from.
const AssetPrefix = "/pdfs/"

// DefaultFilename is returned by FilenameOf when no path segment is found.
const DefaultFilename = "report.pdf"

// Normalize rewrites a raw link into a path the static asset layer serves.
// Network URLs and site-relative paths pass through. Anything containing a
// path separator collapses to its last segment with the query cut off.
// A bare filename is prefixed as-is, query included.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.HasPrefix(raw, "/") {
		return raw
	}
	if strings.ContainsAny(raw, `/\`) {
		seg := lastSegment(raw)
		if i := strings.IndexByte(seg, '?'); i >= 0 {
			seg = seg[:i]
		}
		return AssetPrefix + seg
	}
	return AssetPrefix + raw
}

// FilenameOf derives a file name from a raw link. Absolute URLs use the last
// segment of their path, and opaque ones such as javascript:alert(1) the last
// segment of the part after the scheme. A one-letter scheme is a drive
// letter. Other inputs fall back to the last non-empty segment split on
// either separator.
func FilenameOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		p := u.EscapedPath()
		if u.Opaque != "" {
			if len(u.Scheme) == 1 {
				return fallbackFilename(raw)
			}
			p = u.Opaque
		}
		if i := strings.LastIndexByte(p, '/'); i >= 0 {
			p = p[i+1:]
		}
		if p == "" {
			return DefaultFilename
		}
		return p
	}
	return fallbackFilename(raw)
}

func fallbackFilename(raw string) string {
	parts := strings.FieldsFunc(raw, isSeparator)
	if len(parts) == 0 {
		return DefaultFilename
	}
	return parts[len(parts)-1]
}

func lastSegment(s string) string {
	if i := strings.LastIndexFunc(s, isSeparator); i >= 0 {
		return s[i+1:]
	}
	return s
}

func isSeparator(r rune) bool { return r == '/' || r == '\\' }
