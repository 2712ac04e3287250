package nodepath

// Path is the structured representation of a node address, one segment per
// tree level below the root. The zero value is the root.
type Path struct {
	Segments []string
}

// Root returns the path of the tree root.
func Root() Path {
	return Path{}
}

// IsRoot returns true if the path addresses the tree root.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// Name returns the last segment, or "" for the root.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}
