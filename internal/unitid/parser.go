package unitid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex is used to parse a single segment of a path, e.g., `name` or `name[1]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z0-9_'-]+)(?:\[(\d+)\])?$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "-" || name == "'" {
		return false
	}
	return true
}

// Parse creates a new Name by parsing its canonical string representation.
func Parse(raw string) (*Name, error) {
	if raw == "" {
		return nil, fmt.Errorf("unit name cannot be empty")
	}

	name := &Name{}
	for _, segmentStr := range strings.Split(raw, ".") {
		if segmentStr == "" {
			return nil, fmt.Errorf("unit name %q contains empty segment", raw)
		}

		matches := segmentRegex.FindStringSubmatch(segmentStr)
		if matches == nil {
			return nil, fmt.Errorf("invalid name segment format: %q", segmentStr)
		}

		if !isValidSegmentName(matches[1]) {
			return nil, fmt.Errorf("invalid segment name: %q", matches[1])
		}

		segment := NewSegment(matches[1])
		if matches[2] != "" {
			index, err := strconv.Atoi(matches[2])
			if err != nil {
				// Unreachable due to regex `\d+`
				return nil, fmt.Errorf("internal error parsing index: %w", err)
			}
			segment.Index = index
		}
		name.Path = append(name.Path, segment)
	}

	return name, nil
}

// MustParse is Parse for names known at compile time; it panics on error.
func MustParse(raw string) *Name {
	n, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return n
}
