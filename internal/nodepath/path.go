package nodepath

import "strings"

// String serializes the path into its canonical form.
func (p Path) String() string {
	if p.IsRoot() {
		return "/"
	}
	return "/" + strings.Join(p.Segments, "/")
}

// Equal checks whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// Parent returns the path one level up. The parent of the root is the root.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	segs := make([]string, len(p.Segments)-1)
	copy(segs, p.Segments)
	return Path{Segments: segs}
}

// Child returns the path of a direct child named name.
func (p Path) Child(name string) Path {
	segs := make([]string, len(p.Segments), len(p.Segments)+1)
	copy(segs, p.Segments)
	return Path{Segments: append(segs, name)}
}
