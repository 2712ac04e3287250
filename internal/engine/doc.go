// Package engine defines the boundary to a programming engine, the device
// that transfers an image into the reconfigurable fabric.
//
// The reconfiguration core needs exactly two things from an engine: a
// non-blocking exclusive lock that yields a token, and a Load call made
// with that token. Exclusive is a ready-made lock that engine drivers embed.
package engine
