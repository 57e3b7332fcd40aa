package dap

import (
	"fmt"
	"strings"
)

// NoBound marks a slice with no upper bound.
const NoBound int64 = -1

// Slice is a half-open index range with a stride, applied to a sequence.
// Stop is exclusive; Stop == NoBound means the range is unbounded.
type Slice struct {
	Start int64
	Stop  int64
	Step  int64
}

// DefaultSlice returns the full range: every row, stride one.
func DefaultSlice() Slice {
	return Slice{Start: 0, Stop: NoBound, Step: 1}
}

// Normalize clamps the slice into canonical form: non-negative start,
// stride at least one, and any negative stop collapsed to NoBound.
func (s Slice) Normalize() Slice {
	if s.Start < 0 {
		s.Start = 0
	}
	if s.Stop < 0 {
		s.Stop = NoBound
	}
	if s.Step < 1 {
		s.Step = 1
	}
	return s
}

// Bounded reports whether the slice has an upper bound.
func (s Slice) Bounded() bool {
	return s.Normalize().Stop != NoBound
}

// Window translates the slice into a row window: the number of rows to
// skip and, when bounded, the number of rows to fetch. The stride is not
// part of the window; it is applied while streaming.
func (s Slice) Window() (offset, limit int64, bounded bool) {
	s = s.Normalize()
	offset = s.Start
	if s.Stop == NoBound {
		return offset, 0, false
	}
	limit = s.Stop - s.Start
	if limit < 0 {
		limit = 0
	}
	return offset, limit, true
}

// String renders the slice in start:stop:step form with an empty stop when
// unbounded.
func (s Slice) String() string {
	s = s.Normalize()
	stop := ""
	if s.Stop != NoBound {
		stop = fmt.Sprintf("%d", s.Stop)
	}
	return fmt.Sprintf("%d:%s:%d", s.Start, stop, s.Step)
}

// Segment is one component of a projection path: a name plus the slice
// requested for it.
type Segment struct {
	Name  string
	Slice Slice
}

// NewSegment returns a segment covering the full range.
func NewSegment(name string) Segment {
	return Segment{Name: name, Slice: DefaultSlice()}
}

// Path is a dotted chain of segments addressing a sequence or one of its
// variables.
type Path []Segment

// NewPath builds a path of full-range segments.
func NewPath(names ...string) Path {
	p := make(Path, 0, len(names))
	for _, name := range names {
		p = append(p, NewSegment(name))
	}
	return p
}

// String returns the dotted segment names without slices.
func (p Path) String() string {
	names := make([]string, len(p))
	for i, seg := range p {
		names[i] = seg.Name
	}
	return strings.Join(names, ".")
}

// Projection is the ordered set of paths a client asked for. An empty
// projection selects everything.
type Projection []Path
