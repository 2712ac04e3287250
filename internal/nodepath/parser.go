package nodepath

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex matches a single node name, following device-tree naming
// (name plus optional unit address, e.g. `fpga-bridge@ff200000`).
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9,._+@-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// ValidName reports whether name can be used as a single path segment.
func ValidName(name string) bool {
	return segmentRegex.MatchString(name) && isValidSegmentName(name)
}

// Parse creates a Path by parsing its canonical string representation.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("node path cannot be empty")
	}
	if !strings.HasPrefix(raw, "/") {
		return Path{}, fmt.Errorf("node path %q must be absolute", raw)
	}
	if raw == "/" {
		return Root(), nil
	}

	var p Path
	for _, seg := range strings.Split(raw[1:], "/") {
		if seg == "" {
			return Path{}, fmt.Errorf("node path %q contains empty segment", raw)
		}
		if !ValidName(seg) {
			return Path{}, fmt.Errorf("invalid node name %q in path %q", seg, raw)
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static paths.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
