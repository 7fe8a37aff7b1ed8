package unitid

import (
	"fmt"
	"slices"
	"strings"
)

// String serializes the Name into its canonical path string representation.
func (n *Name) String() string {
	if n == nil {
		return ""
	}

	var sb strings.Builder
	for i, segment := range n.Path {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteString(fmt.Sprintf("[%d]", segment.Index))
		}
	}

	return sb.String()
}

// Equal checks for deep equality between two Name pointers.
func (n *Name) Equal(other *Name) bool {
	if n == nil || other == nil {
		return n == other
	}
	return slices.Equal(n.Path, other.Path)
}

// Base returns the last segment's name, the unit's own name without its module.
func (n *Name) Base() string {
	if n == nil || len(n.Path) == 0 {
		return ""
	}
	return n.Path[len(n.Path)-1].Name
}

// Module returns the dotted module prefix, or "" for a top-level name.
func (n *Name) Module() string {
	if n == nil || len(n.Path) < 2 {
		return ""
	}
	parts := make([]string, 0, len(n.Path)-1)
	for _, s := range n.Path[:len(n.Path)-1] {
		parts = append(parts, s.Name)
	}
	return strings.Join(parts, ".")
}

// Child appends an indexed segment, used to name generated units such as
// the examples attached to a declaration.
func (n *Name) Child(name string, index int) *Name {
	path := slices.Clone(n.Path)
	path = append(path, NewSegmentWithIndex(name, index))
	return &Name{Path: path}
}
