package routepath

import (
	"errors"
	"fmt"
	"strings"
)

// SplatParam is the param name a bare wildcard captures into.
const SplatParam = "_splat"

// Pattern compilation errors.
var (
	ErrMalformedPattern = errors.New("malformed route pattern")
	ErrMissingParam     = errors.New("missing required path param")
)

// SegmentKind classifies one compiled pattern segment.
type SegmentKind uint8

const (
	// SegmentStatic matches a literal path segment.
	SegmentStatic SegmentKind = iota
	// SegmentParam captures one non-empty path segment.
	SegmentParam
	// SegmentOptional captures one path segment or nothing.
	SegmentOptional
	// SegmentWildcard captures the rest of the path.
	SegmentWildcard
	// SegmentSlash is the trailing slash of an index route; it matches only the end of the path.
	SegmentSlash
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentStatic:
		return "static"
	case SegmentParam:
		return "param"
	case SegmentOptional:
		return "optional"
	case SegmentWildcard:
		return "wildcard"
	case SegmentSlash:
		return "slash"
	}
	return "unknown"
}

// Segment is one compiled piece of a route pattern.
type Segment struct {
	Kind SegmentKind

	// Value is the literal for static segments and the param name otherwise.
	Value string

	// Prefix and Suffix are literal text around a param inside one segment,
	// as in "post-{$id}.html".
	Prefix string
	Suffix string

	caseSensitive bool
}

// IsDynamic reports whether the segment captures a param.
func (s Segment) IsDynamic() bool {
	return s.Kind == SegmentParam || s.Kind == SegmentOptional || s.Kind == SegmentWildcard
}

// String renders the segment back in canonical "$name" syntax.
func (s Segment) String() string {
	switch s.Kind {
	case SegmentStatic:
		return s.Value
	case SegmentSlash:
		return "/"
	case SegmentParam:
		if s.Prefix == "" && s.Suffix == "" {
			return "$" + s.Value
		}
		return s.Prefix + "{$" + s.Value + "}" + s.Suffix
	case SegmentOptional:
		return s.Prefix + "{-$" + s.Value + "}" + s.Suffix
	case SegmentWildcard:
		name := ""
		if s.Value != SplatParam {
			name = s.Value
		}
		if s.Prefix == "" && s.Suffix == "" && name == "" {
			return "$"
		}
		return s.Prefix + "{$" + name + "}" + s.Suffix
	}
	return ""
}

// Pattern is a compiled route path.
type Pattern struct {
	raw      string
	segments []Segment
	pathless bool
}

// Option configures pattern compilation.
type Option func(*compileOptions)

type compileOptions struct {
	caseSensitive bool
}

// CaseSensitive makes static segments compare byte-for-byte.
func CaseSensitive(enabled bool) Option {
	return func(o *compileOptions) {
		o.caseSensitive = enabled
	}
}

// Compile parses a route path pattern.
//
// Supported segment forms:
//
//	posts            static
//	$id  :id         required param
//	$id? :id? {-$id} optional param
//	$  *  *rest {$}  wildcard (last segment only)
//	post-{$id}.html  param with literal prefix and suffix
//	(group)  _layout pathless, contributes no segment
//
// A trailing slash ("/" alone, or "posts/") marks an index route.
func Compile(pattern string, opts ...Option) (*Pattern, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pattern{raw: pattern}
	trimmed := strings.TrimLeft(pattern, "/")
	index := strings.HasSuffix(pattern, "/")
	trimmed = strings.TrimRight(trimmed, "/")

	if trimmed != "" {
		for _, part := range strings.Split(trimmed, "/") {
			if part == "" {
				continue
			}
			if isPathless(part) {
				continue
			}
			seg, err := parseSegment(part)
			if err != nil {
				return nil, fmt.Errorf("%w %q: %v", ErrMalformedPattern, pattern, err)
			}
			seg.caseSensitive = o.caseSensitive
			p.segments = append(p.segments, seg)
		}
	}

	for i, seg := range p.segments {
		if seg.Kind == SegmentWildcard && i != len(p.segments)-1 {
			return nil, fmt.Errorf("%w %q: wildcard must be the last segment", ErrMalformedPattern, pattern)
		}
	}

	if index {
		if n := len(p.segments); n > 0 && p.segments[n-1].Kind == SegmentWildcard {
			return nil, fmt.Errorf("%w %q: wildcard cannot be an index", ErrMalformedPattern, pattern)
		}
		p.segments = append(p.segments, Segment{Kind: SegmentSlash})
	}

	p.pathless = len(p.segments) == 0
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string, opts ...Option) *Pattern {
	p, err := Compile(pattern, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func isPathless(part string) bool {
	if strings.HasPrefix(part, "_") {
		return true
	}
	return len(part) > 2 && part[0] == '(' && part[len(part)-1] == ')'
}

func parseSegment(part string) (Segment, error) {
	if open := strings.IndexByte(part, '{'); open >= 0 {
		return parseBraced(part, open)
	}
	if strings.ContainsAny(part, "{}") {
		return Segment{}, errors.New("unbalanced brace")
	}

	switch {
	case part == "$" || part == "*":
		return Segment{Kind: SegmentWildcard, Value: SplatParam}, nil
	case part[0] == '*':
		name := part[1:]
		if !validName(name) {
			return Segment{}, fmt.Errorf("invalid wildcard name %q", name)
		}
		return Segment{Kind: SegmentWildcard, Value: name}, nil
	case part[0] == '$' || part[0] == ':':
		name := part[1:]
		kind := SegmentParam
		if strings.HasSuffix(name, "?") {
			name = strings.TrimSuffix(name, "?")
			kind = SegmentOptional
		}
		if !validName(name) {
			return Segment{}, fmt.Errorf("invalid param name %q", name)
		}
		return Segment{Kind: kind, Value: name}, nil
	}
	return Segment{Kind: SegmentStatic, Value: part}, nil
}

func parseBraced(part string, open int) (Segment, error) {
	rel := strings.IndexByte(part[open:], '}')
	if rel < 0 {
		return Segment{}, errors.New("unterminated brace")
	}
	closing := open + rel
	prefix := part[:open]
	inner := part[open+1 : closing]
	suffix := part[closing+1:]
	if strings.ContainsAny(prefix, "{}") || strings.ContainsAny(suffix, "{}") {
		return Segment{}, errors.New("more than one brace group in a segment")
	}

	switch {
	case inner == "$":
		return Segment{Kind: SegmentWildcard, Value: SplatParam, Prefix: prefix, Suffix: suffix}, nil
	case strings.HasPrefix(inner, "-$"):
		name := inner[2:]
		if !validName(name) {
			return Segment{}, fmt.Errorf("invalid param name %q", name)
		}
		return Segment{Kind: SegmentOptional, Value: name, Prefix: prefix, Suffix: suffix}, nil
	case strings.HasPrefix(inner, "$"):
		name := inner[1:]
		if strings.HasPrefix(name, "...") {
			name = name[3:]
			if !validName(name) {
				return Segment{}, fmt.Errorf("invalid wildcard name %q", name)
			}
			return Segment{Kind: SegmentWildcard, Value: name, Prefix: prefix, Suffix: suffix}, nil
		}
		if !validName(name) {
			return Segment{}, fmt.Errorf("invalid param name %q", name)
		}
		return Segment{Kind: SegmentParam, Value: name, Prefix: prefix, Suffix: suffix}, nil
	}
	return Segment{}, fmt.Errorf("unsupported brace group %q", inner)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Segments returns the compiled segments.
func (p *Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Pathless reports whether the pattern consumes no path segments.
func (p *Pattern) Pathless() bool {
	return p.pathless
}

// IsIndex reports whether the pattern ends in an index slash.
func (p *Pattern) IsIndex() bool {
	n := len(p.segments)
	return n > 0 && p.segments[n-1].Kind == SegmentSlash
}

// ParamNames returns the names of all dynamic segments in order.
func (p *Pattern) ParamNames() []string {
	var names []string
	for _, seg := range p.segments {
		if seg.IsDynamic() {
			names = append(names, seg.Value)
		}
	}
	return names
}

// WildcardParam returns the name the wildcard captures into, if any.
func (p *Pattern) WildcardParam() (string, bool) {
	n := len(p.segments)
	if n > 0 && p.segments[n-1].Kind == SegmentWildcard {
		return p.segments[n-1].Value, true
	}
	return "", false
}

// Join appends child's segments to p, producing the full pattern of a nested route.
// An index slash on p is dropped since it only applies to the end of a path.
func (p *Pattern) Join(child *Pattern) *Pattern {
	segs := make([]Segment, 0, len(p.segments)+len(child.segments))
	for _, seg := range p.segments {
		if seg.Kind == SegmentSlash {
			continue
		}
		segs = append(segs, seg)
	}
	segs = append(segs, child.segments...)

	var b strings.Builder
	for _, seg := range segs {
		if seg.Kind == SegmentSlash {
			b.WriteString("/")
			continue
		}
		b.WriteString("/")
		b.WriteString(seg.String())
	}
	raw := b.String()
	if raw == "" {
		raw = "/"
	}
	return &Pattern{raw: raw, segments: segs, pathless: len(segs) == 0}
}
