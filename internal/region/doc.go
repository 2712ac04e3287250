// Package region implements the reconfigurable region and its Program
// state machine.
//
// Program takes the region's own lock, then the engine's lock (always in
// that order), assembles the interface list when the region resolves its
// topology dynamically, disables the list tail to head, loads the image,
// and enables the list head to tail. Any failure unwinds what the call
// acquired in reverse order. On success both locks are released but the
// interfaces stay held until the caller runs ReleaseInterfaces, so the
// region cannot be reprogrammed before the caller decides it is safe.
package region
