// Package resolver assembles a region's interface list from the topology
// tree. Resolution acquires every interface exclusively and either hands
// back a complete list or releases everything it took.
package resolver
