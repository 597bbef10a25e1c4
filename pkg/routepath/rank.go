package routepath

import "strings"

// Segment weights used to order competing full paths. Higher is more specific.
const (
	scoreStatic          = 1.0
	scoreSlash           = 0.75
	scoreParam           = 0.5
	scoreOptional        = 0.4
	scoreWildcard        = 0.25
	scoreStaticAfter     = 0.2
	scoreBothAffixes     = 0.05
	scorePrefixPresence  = 0.02
	scoreSuffixPresence  = 0.01
	scorePrefixPerLetter = 0.0002
	scoreSuffixPerLetter = 0.0001
)

// Scores returns the per-segment specificity vector of the pattern.
func (p *Pattern) Scores() []float64 {
	scores := make([]float64, len(p.segments))
	for i, seg := range p.segments {
		switch seg.Kind {
		case SegmentStatic:
			scores[i] = scoreStatic
		case SegmentSlash:
			scores[i] = scoreSlash
		default:
			base := scoreWildcard
			switch seg.Kind {
			case SegmentParam:
				base = scoreParam
			case SegmentOptional:
				base = scoreOptional
			}
			if p.staticAfter(i) {
				base += scoreStaticAfter
			}
			scores[i] = base + seg.affixScore()
		}
	}
	return scores
}

func (s Segment) affixScore() float64 {
	switch {
	case s.Prefix != "" && s.Suffix != "":
		return scoreBothAffixes + scorePrefixPerLetter*float64(len(s.Prefix)) + scoreSuffixPerLetter*float64(len(s.Suffix))
	case s.Prefix != "":
		return scorePrefixPresence + scorePrefixPerLetter*float64(len(s.Prefix))
	case s.Suffix != "":
		return scoreSuffixPresence + scoreSuffixPerLetter*float64(len(s.Suffix))
	}
	return 0
}

func (p *Pattern) staticAfter(i int) bool {
	for _, next := range p.segments[i+1:] {
		if next.Kind == SegmentStatic {
			return true
		}
	}
	return false
}

func (p *Pattern) optionalCount() int {
	n := 0
	for _, seg := range p.segments {
		if seg.Kind == SegmentOptional {
			n++
		}
	}
	return n
}

func (p *Pattern) hasStaticAfterDynamic() bool {
	for i, seg := range p.segments {
		if seg.IsDynamic() && p.staticAfter(i) {
			return true
		}
	}
	return false
}

// Compare orders two full patterns by specificity. It returns a negative
// number when a is more specific than b, positive when b is, and 0 when
// they are indistinguishable, in which case callers fall back to
// declaration order.
func Compare(a, b *Pattern) int {
	as, bs := a.Scores(), b.Scores()
	n := min(len(as), len(bs))
	for i := 0; i < n; i++ {
		if as[i] != bs[i] {
			if as[i] > bs[i] {
				return -1
			}
			return 1
		}
	}

	if len(as) != len(bs) {
		ao, bo := a.optionalCount(), b.optionalCount()
		if ao != bo {
			aStatic, bStatic := a.hasStaticAfterDynamic(), b.hasStaticAfterDynamic()
			switch {
			case aStatic == bStatic:
				return ao - bo
			case aStatic:
				return -1
			default:
				return 1
			}
		}
		return len(bs) - len(as)
	}

	for i := 0; i < n; i++ {
		av, bv := a.segments[i].String(), b.segments[i].String()
		if c := strings.Compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}
