// Package hcl provides the HCL implementation of the topology file format.
//
// A topology file is a tree of nested `node "<name>" { ... }` blocks whose
// attributes become node properties. Several files may be loaded into one
// tree; their top-level nodes are merged under the root. An image file
// holds a single `image` block describing the bitstream plus overlay
// content: top-level attributes belong to the overlay root and top-level
// node blocks are overlay children.
package hcl
