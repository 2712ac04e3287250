// Package nodepath provides the canonical address of a node in the
// configuration tree. A path is absolute, '/'-separated, and "/" is the
// root, e.g. "/soc/fpga-bridge@0". The string form is the identity used as
// a registry key.
package nodepath
