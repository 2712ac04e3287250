// Package topology defines the format-agnostic configuration tree that
// describes hardware topology: which nodes are regions, which are
// interfaces, which engine programs a region, and per-interface setup data.
//
// The tree is read-only once loaded. The reconfiguration core reads it
// through three primitives only: Node.Reference (resolve the index-th entry
// of a reference property), Node.Child (find a direct child by name), and
// Node.IsCompatible (check a type tag). Concrete file formats, such as HCL,
// are provided in separate packages.
package topology
