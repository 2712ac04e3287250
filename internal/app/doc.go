// Package app wires the reconfiguration core into a running application:
// it loads the topology, registers the driver modules, attaches regions
// and interfaces, and exposes program/release/status operations both
// directly and through the status HTTP server.
package app
