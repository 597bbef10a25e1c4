package routepath

import (
	"fmt"
	"strings"
)

// Build interpolates params into the pattern and returns an absolute pathname.
// Values are inserted as given; run them through EncodeParams first when they
// may contain reserved characters.
func (p *Pattern) Build(params map[string]string) (string, error) {
	parts := make([]string, 0, len(p.segments))
	for _, seg := range p.segments {
		switch seg.Kind {
		case SegmentStatic:
			parts = append(parts, seg.Value)
		case SegmentSlash:
		case SegmentParam:
			v, ok := params[seg.Value]
			if !ok || v == "" {
				return "", fmt.Errorf("%w %q for %s", ErrMissingParam, seg.Value, p.raw)
			}
			parts = append(parts, seg.Prefix+v+seg.Suffix)
		case SegmentOptional, SegmentWildcard:
			if v := params[seg.Value]; v != "" {
				parts = append(parts, seg.Prefix+v+seg.Suffix)
			}
		}
	}
	return "/" + strings.Join(parts, "/"), nil
}
