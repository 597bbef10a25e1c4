package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Href is a location string split into its parts.
type Href struct {
	// Pathname is the canonical path.
	Pathname string

	// Search is the query string without the leading "?".
	Search string

	// Hash is the fragment without the leading "#".
	Hash string

	// Changed reports whether canonicalization rewrote the pathname.
	Changed bool
}

// TrailingSlash controls how Canonicalize treats a trailing slash.
type TrailingSlash uint8

const (
	// TrailingSlashNever strips a trailing slash (except for "/").
	TrailingSlashNever TrailingSlash = iota
	// TrailingSlashAlways adds a trailing slash.
	TrailingSlashAlways
	// TrailingSlashPreserve keeps whatever the input had.
	TrailingSlashPreserve
)

// ParseTrailingSlash maps the config spelling to a policy.
func ParseTrailingSlash(s string) (TrailingSlash, bool) {
	switch s {
	case "", "never":
		return TrailingSlashNever, true
	case "always":
		return TrailingSlashAlways, true
	case "preserve":
		return TrailingSlashPreserve, true
	}
	return TrailingSlashNever, false
}

// Path canonicalization errors.
var (
	ErrInvalidPath           = errors.New("invalid path")
	ErrBackslashInPath       = errors.New("path contains backslash")
	ErrNullByteInPath        = errors.New("path contains null byte")
	ErrInvalidPercentEscape  = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot       = errors.New("path escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("encoded slash (%2F) in non-wildcard param")
)

// Canonicalize splits href into pathname, search and hash and normalizes the pathname:
//   - collapse repeated slashes (/blog//post → /blog/post)
//   - drop "." segments and resolve ".." segments
//   - apply the trailing slash policy
//
// Backslashes, NUL bytes, malformed percent escapes and ".." above root are rejected.
// Search and hash are passed through untouched.
func Canonicalize(href string, trailing TrailingSlash) (Href, error) {
	rest, hash, _ := strings.Cut(href, "#")
	path, search, _ := strings.Cut(rest, "?")

	if strings.Contains(path, "\\") {
		return Href{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Href{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Href{}, err
		}
	}

	original := path
	hadTrailing := len(path) > 1 && strings.HasSuffix(path, "/")

	var kept []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(kept) == 0 {
				return Href{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}

	path = "/" + strings.Join(kept, "/")
	if path != "/" {
		switch trailing {
		case TrailingSlashAlways:
			path += "/"
		case TrailingSlashPreserve:
			if hadTrailing {
				path += "/"
			}
		}
	}

	return Href{
		Pathname: path,
		Search:   search,
		Hash:     hash,
		Changed:  path != original,
	}, nil
}

// ValidateNavigationTarget rejects absolute and protocol-relative URLs so a
// navigation can never leave the application.
func ValidateNavigationTarget(href string) error {
	if strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//") {
		return ErrInvalidPath
	}
	if !strings.HasPrefix(href, "/") {
		return ErrInvalidPath
	}
	return nil
}

func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeParam decodes a raw captured param value. Wildcard values may
// contain "/"; any other param decoding to a "/" is rejected.
func DecodeParam(raw string, wildcard bool) (string, error) {
	if wildcard {
		parts := strings.Split(raw, "/")
		for i, part := range parts {
			decoded, err := url.PathUnescape(part)
			if err != nil {
				return "", ErrInvalidPercentEscape
			}
			parts[i] = decoded
		}
		return strings.Join(parts, "/"), nil
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlashInSegment
	}
	return decoded, nil
}

// DecodeParams decodes every value captured by p.
func (p *Pattern) DecodeParams(raw map[string]string) (map[string]string, error) {
	wildcard, _ := p.WildcardParam()
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		decoded, err := DecodeParam(v, k == wildcard)
		if err != nil {
			return nil, err
		}
		out[k] = decoded
	}
	return out, nil
}

// EncodeParams escapes decoded values for interpolation with Build. Wildcard
// values keep their "/" separators.
func (p *Pattern) EncodeParams(params map[string]string) map[string]string {
	wildcard, _ := p.WildcardParam()
	out := make(map[string]string, len(params))
	for k, v := range params {
		if k == wildcard {
			parts := strings.Split(v, "/")
			for i, part := range parts {
				parts[i] = url.PathEscape(part)
			}
			out[k] = strings.Join(parts, "/")
			continue
		}
		out[k] = url.PathEscape(v)
	}
	return out
}
