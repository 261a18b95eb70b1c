package xmltree

// Match describes how a located element corresponded to the caller's
// position hint.
type Match uint8

const (
	// MatchNone means no element satisfied the hint at all.
	MatchNone Match = iota
	// MatchExact means an element of the requested tag starts on the
	// requested source line.
	MatchExact
	// MatchApproximate means no element starts on the requested line and
	// the hint was reinterpreted as a zero-based element index.
	MatchApproximate
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchApproximate:
		return "approximate"
	default:
		return "none"
	}
}

// FindByTagIndex returns the i-th element with the given written tag in
// document order, or Nil when the index is out of range.
func (t *Tree) FindByTagIndex(tag string, i int) NodeID {
	elems := t.Elements(tag)
	if i < 0 || i >= len(elems) {
		return Nil
	}
	return elems[i]
}

// FindByTagLine returns the first element with the given written tag
// whose start tag sits on the given 1-based source line. When no element
// starts there, which is the usual case for the single-line XML Word
// produces, the line is reinterpreted as a zero-based index into all
// elements of that tag and the result is reported as approximate.
func (t *Tree) FindByTagLine(tag string, line int) (NodeID, Match) {
	elems := t.Elements(tag)
	if line > 0 {
		for _, id := range elems {
			if int(t.nodes[id].line) == line {
				return id, MatchExact
			}
		}
	}
	if line >= 0 && line < len(elems) {
		return elems[line], MatchApproximate
	}
	return Nil, MatchNone
}
