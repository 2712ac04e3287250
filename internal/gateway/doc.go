// Package gateway implements the interfaces that must be quiesced before,
// and restored after, a region is reprogrammed.
//
// An Interface is created by a provider with a capability record (Ops) of
// optional hooks; a missing hook is a defined default, not an error. An
// Interface is exclusively held through a Lease, the pinning token returned
// by Acquire: while a lease is outstanding the provider cannot detach the
// interface. A List owns the leases of one region's interfaces in
// acquisition order and enables them head to tail, disables them tail to
// head.
package gateway
