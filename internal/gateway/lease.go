package gateway

import "sync"

// Lease is the pinning token of an acquired interface. Dropping it with
// Release returns the interface to the free state.
type Lease struct {
	iface *Interface
	once  sync.Once
}

// Interface returns the leased interface.
func (l *Lease) Interface() *Interface { return l.iface }

// Release frees the interface. Only the first call has an effect.
func (l *Lease) Release() {
	l.once.Do(l.iface.release)
}
