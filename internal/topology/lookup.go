package topology

import (
	"fmt"

	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/nodepath"
	"github.com/zclconf/go-cty/cty"
)

// Attr returns a raw property value.
func (n *Node) Attr(name string) (cty.Value, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames returns the names of all properties set on the node.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	return names
}

// Strings reads a property that is either a single string or a list/tuple
// of strings. A missing property yields nil.
func (n *Node) Strings(name string) ([]string, error) {
	v, ok := n.attrs[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("property %q of %s is not known", name, n)
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return []string{v.AsString()}, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []string
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.IsNull() || ev.Type() != cty.String {
				return nil, fmt.Errorf("property %q of %s must contain only strings", name, n)
			}
			out = append(out, ev.AsString())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("property %q of %s must be a string or list of strings, got %s", name, n, ty.FriendlyName())
	}
}

// IsCompatible reports whether the node lists tag in its compatible property.
func (n *Node) IsCompatible(tag string) bool {
	if n == nil {
		return false
	}
	tags, err := n.Strings(PropCompatible)
	if err != nil {
		return false
	}
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Child finds a direct child by name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Reference resolves the index-th entry of a reference property. It
// returns (nil, nil) when the property is absent or index is past the end
// of the list, and an ErrNotFound error when the entry does not resolve to
// a node.
func (n *Node) Reference(prop string, index int) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	refs, err := n.Strings(prop)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(refs) {
		return nil, nil
	}

	raw := refs[index]
	p, err := nodepath.Parse(raw)
	if err != nil {
		return nil, &fault.Error{Kind: fault.ErrNotFound, Resource: "node", Name: raw, Err: err}
	}
	target, ok := n.tree.resolve(p)
	if !ok {
		return nil, fault.NotFound("node", raw)
	}
	return target, nil
}

// HasReferences reports whether the node declares at least one entry in a
// reference property.
func (n *Node) HasReferences(prop string) bool {
	if n == nil {
		return false
	}
	refs, err := n.Strings(prop)
	return err == nil && len(refs) > 0
}
