// Package registry provides the central "glue" between the topology and
// the live objects built from it.
//
// The Registry stores the interface and engine drivers contributed by
// modules, keyed by the compatible tag they serve, and tracks every live
// Region, Interface and Engine by the topology node it was attached from.
// It replaces process-wide class lookups: the attach layer owns one
// registry for its whole lifetime and passes it to whoever needs lookups.
package registry
