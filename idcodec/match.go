package idcodec

// MatchPattern reports whether candidate (a concrete, non-wildcard
// identifier) is matched by pattern (an identifier with at most one
// wildcard, at its tail). Both are parsed from scratch, so callers may pass
// either bare or "gts://"-prefixed forms.
func MatchPattern(candidate, pattern string) (bool, error) {
	c, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	if c.IsWildcard {
		return false, invalidIdentifier("candidate must not contain a wildcard")
	}
	p, err := Parse(pattern)
	if err != nil {
		return false, err
	}
	return matchSegments(c.Segments, p.Segments), nil
}

func matchSegments(candidate, pattern []Segment) bool {
	if len(pattern) > len(candidate) {
		return false
	}
	for i, ps := range pattern {
		cs := candidate[i]
		if ps.IsWildcard {
			return matchWildcardSegment(cs, ps)
		}
		if !matchExactSegment(cs, ps) {
			return false
		}
	}
	return true
}

func matchWildcardSegment(candidate, pattern Segment) bool {
	if pattern.IsType != candidate.IsType {
		return false
	}
	n := len(pattern.Tokens) - 1
	if len(candidate.Tokens) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if pattern.Tokens[i] != candidate.Tokens[i] {
			return false
		}
	}
	return true
}

func matchExactSegment(candidate, pattern Segment) bool {
	if pattern.IsType != candidate.IsType {
		return false
	}
	if pattern.Vendor != candidate.Vendor ||
		pattern.Package != candidate.Package ||
		pattern.Namespace != candidate.Namespace ||
		pattern.TypeName != candidate.TypeName {
		return false
	}
	if pattern.Major != candidate.Major {
		return false
	}
	if pattern.HasMinor {
		if !candidate.HasMinor || pattern.Minor != candidate.Minor {
			return false
		}
	}
	return true
}
