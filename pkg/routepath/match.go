package routepath

import "strings"

// Result is one way a pattern can consume the head of a path.
type Result struct {
	// Consumed is the number of path segments the pattern used.
	Consumed int

	// Params holds raw (still percent-encoded) captured values.
	Params map[string]string
}

// Split breaks a canonical pathname into its segments. "/" yields none.
func Split(pathname string) []string {
	pathname = strings.Trim(pathname, "/")
	if pathname == "" {
		return nil
	}
	return strings.Split(pathname, "/")
}

// Test matches the pattern against the whole of segments.
func (p *Pattern) Test(segments []string) (Result, bool) {
	for _, r := range p.Prefixes(segments) {
		if r.Consumed == len(segments) {
			return r, true
		}
	}
	return Result{}, false
}

// Prefixes returns every way the pattern can match a leading run of segments,
// in the order the alternatives were explored (optional segments present first).
// The returned param maps are owned by the caller.
func (p *Pattern) Prefixes(segments []string) []Result {
	var out []Result
	p.walk(0, segments, 0, map[string]string{}, &out)
	return out
}

func (p *Pattern) walk(pi int, segments []string, si int, params map[string]string, out *[]Result) {
	if pi == len(p.segments) {
		*out = append(*out, Result{Consumed: si, Params: cloneParams(params)})
		return
	}

	seg := p.segments[pi]
	switch seg.Kind {
	case SegmentSlash:
		if si == len(segments) {
			p.walk(pi+1, segments, si, params, out)
		}

	case SegmentStatic:
		if si < len(segments) && seg.equal(segments[si], seg.Value) {
			p.walk(pi+1, segments, si+1, params, out)
		}

	case SegmentParam:
		if si < len(segments) {
			if v, ok := seg.capture(segments[si]); ok {
				params[seg.Value] = v
				p.walk(pi+1, segments, si+1, params, out)
				delete(params, seg.Value)
			}
		}

	case SegmentOptional:
		if si < len(segments) {
			if v, ok := seg.capture(segments[si]); ok {
				params[seg.Value] = v
				p.walk(pi+1, segments, si+1, params, out)
				delete(params, seg.Value)
			}
		}
		p.walk(pi+1, segments, si, params, out)

	case SegmentWildcard:
		rest := segments[si:]
		if len(rest) == 0 {
			// A bare wildcard also matches nothing at all.
			if seg.Prefix == "" && seg.Suffix == "" {
				params[seg.Value] = ""
				p.walk(pi+1, segments, si, params, out)
				delete(params, seg.Value)
			}
			return
		}
		joined := strings.Join(rest, "/")
		if seg.Prefix != "" || seg.Suffix != "" {
			v, ok := seg.capture(joined)
			if !ok {
				return
			}
			joined = v
		}
		params[seg.Value] = joined
		p.walk(pi+1, segments, len(segments), params, out)
		delete(params, seg.Value)
	}
}

func (s Segment) equal(a, b string) bool {
	if s.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

func (s Segment) hasPrefix(v string) bool {
	return len(v) >= len(s.Prefix) && s.equal(v[:len(s.Prefix)], s.Prefix)
}

func (s Segment) hasSuffix(v string) bool {
	return len(v) >= len(s.Suffix) && s.equal(v[len(v)-len(s.Suffix):], s.Suffix)
}

// capture strips the segment's prefix and suffix from v, requiring a non-empty value.
func (s Segment) capture(v string) (string, bool) {
	if len(v) <= len(s.Prefix)+len(s.Suffix) {
		return "", false
	}
	if !s.hasPrefix(v) || !s.hasSuffix(v) {
		return "", false
	}
	return v[len(s.Prefix) : len(v)-len(s.Suffix)], true
}

func cloneParams(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
