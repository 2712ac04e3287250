// Package attach turns a loaded topology tree into live objects: it builds
// programming engines and interfaces through the drivers in a registry,
// creates a Region for every region-manager node and registers everything
// for lookup. Detach tears the same objects down in reverse order.
package attach
