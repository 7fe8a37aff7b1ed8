package unitid

// Segment represents a single component of a qualified name, e.g. `name[index]`.
type Segment struct {
	Name  string
	Index int // -1 indicates no index is present.
}

// NewSegment creates a new segment without an index.
func NewSegment(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// NewSegmentWithIndex creates a new segment that includes an index.
// Generated units (the n-th example of a declaration) use the index.
func NewSegmentWithIndex(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// HasIndex returns true if the segment has an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Name is the structured representation of a unit's qualified name.
type Name struct {
	Path []Segment
}

// New builds a Name from a module path and a base name.
func New(module []string, base string) *Name {
	n := &Name{Path: make([]Segment, 0, len(module)+1)}
	for _, m := range module {
		n.Path = append(n.Path, NewSegment(m))
	}
	n.Path = append(n.Path, NewSegment(base))
	return n
}
