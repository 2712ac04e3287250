package region

import (
	"fmt"

	"github.com/specialistvlad/regiongate/internal/gateway"
	"github.com/specialistvlad/regiongate/internal/topology"
)

// Option configures a Region at creation.
type Option func(*Region)

// WithID sets the region id; the region is named "region<id>" unless
// WithName is also given.
func WithID(id int) Option {
	return func(r *Region) {
		r.id = id
		if !r.named {
			r.name = fmt.Sprintf("region%d", id)
		}
	}
}

// WithName overrides the generated region name.
func WithName(name string) Option {
	return func(r *Region) {
		if name != "" {
			r.name = name
			r.named = true
		}
	}
}

// WithNode binds the region to its topology node. Dynamic resolution reads
// the parent interface, the interface references and setup leaves from it.
func WithNode(node *topology.Node) Option {
	return func(r *Region) {
		r.node = node
	}
}

// WithCompatID sets the compatibility identifier.
func WithCompatID(id CompatID) Option {
	return func(r *Region) {
		r.compat = &id
	}
}

// WithInterfaces pre-populates the interface list of a region that does
// not resolve its topology dynamically. The list is owned by the region.
func WithInterfaces(list *gateway.List) Option {
	return func(r *Region) {
		if list != nil {
			r.list = list
		}
	}
}

// WithObserver registers an observer for Program results.
func WithObserver(obs Observer) Option {
	return func(r *Region) {
		r.observer = obs
	}
}
