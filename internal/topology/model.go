package topology

import (
	"context"
	"fmt"

	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

// Well-known property names and compatible tags.
const (
	// PropCompatible lists the type tags of a node.
	PropCompatible = "compatible"
	// PropInterfaces is the ordered interface-reference list of a region or overlay.
	PropInterfaces = "interfaces"
	// PropEngine references the programming engine of a region manager.
	PropEngine = "engine"
	// PropCompatID carries a region's compatibility identifier as 32 hex digits.
	PropCompatID = "compat_id"

	// CompatRegionManager marks a node that becomes a Region on attach.
	CompatRegionManager = "region-manager"
	// CompatInterface marks a node that is interface-shaped.
	CompatInterface = "region-interface"
)

// Node is a single node of a configuration tree.
type Node struct {
	name     string
	path     nodepath.Path
	parent   *Node
	children []*Node
	attrs    map[string]cty.Value
	tree     *Tree
}

// Tree is a loaded configuration tree. An overlay tree has a base: its
// references resolve against the base tree first.
type Tree struct {
	root   *Node
	index  map[string]*Node
	base   *Tree
	source string
}

// NewTree creates an empty tree with only a root node.
func NewTree(source string) *Tree {
	t := &Tree{index: make(map[string]*Node), source: source}
	t.root = &Node{path: nodepath.Root(), attrs: make(map[string]cty.Value), tree: t}
	t.index["/"] = t.root
	return t
}

// NewOverlay creates an empty overlay tree whose references resolve
// against base.
func NewOverlay(base *Tree, source string) *Tree {
	t := NewTree(source)
	t.base = base
	return t
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.root }

// Source describes where the tree was loaded from.
func (t *Tree) Source() string { return t.source }

// Base returns the base tree of an overlay, or nil.
func (t *Tree) Base() *Tree { return t.base }

// Lookup finds a node by absolute path in this tree only.
func (t *Tree) Lookup(p nodepath.Path) (*Node, bool) {
	n, ok := t.index[p.String()]
	return n, ok
}

// resolve finds a node for a reference, trying the base tree first.
func (t *Tree) resolve(p nodepath.Path) (*Node, bool) {
	if t.base != nil {
		if n, ok := t.base.resolve(p); ok {
			return n, true
		}
	}
	return t.Lookup(p)
}

// Walk visits every node depth-first in declaration order, parents before
// children. Returning an error stops the walk.
func (t *Tree) Walk(fn func(*Node) error) error {
	var visit func(*Node) error
	visit = func(n *Node) error {
		if err := fn(n); err != nil {
			return err
		}
		for _, c := range n.children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.root)
}

// AddChild appends a new child node. Names must be unique among siblings.
func (n *Node) AddChild(name string) (*Node, error) {
	if !nodepath.ValidName(name) {
		return nil, fmt.Errorf("invalid node name %q under %s", name, n.path)
	}
	if n.Child(name) != nil {
		return nil, fmt.Errorf("duplicate node %q under %s", name, n.path)
	}
	c := &Node{
		name:   name,
		path:   n.path.Child(name),
		parent: n,
		attrs:  make(map[string]cty.Value),
		tree:   n.tree,
	}
	n.children = append(n.children, c)
	n.tree.index[c.path.String()] = c
	return c, nil
}

// SetAttr sets a property value on the node.
func (n *Node) SetAttr(name string, v cty.Value) {
	n.attrs[name] = v
}

// Name returns the node name; the root's name is empty.
func (n *Node) Name() string { return n.name }

// Path returns the absolute path of the node within its tree.
func (n *Node) Path() nodepath.Path { return n.path }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct children in declaration order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree { return n.tree }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.tree.base != nil {
		return "overlay:" + n.path.String()
	}
	return n.path.String()
}

// Loader reads a configuration tree from files or directories.
type Loader interface {
	LoadTree(ctx context.Context, paths ...string) (*Tree, error)
}
