// Package image describes the metadata of a hardware image handed to a
// programming engine. The reconfiguration core passes it through without
// interpreting anything but the overlay node.
package image

import (
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/regiongate/internal/topology"
)

// Flags modify how an engine loads an image.
type Flags uint32

const (
	// Partial requests partial reconfiguration of the region only.
	Partial Flags = 1 << iota
	// ExternalConfig means the fabric was configured before the OS came up.
	ExternalConfig
	// Encrypted marks an encrypted bitstream.
	Encrypted
	// LSBFirst marks a bitstream stored least-significant-bit first.
	LSBFirst
	// Compressed marks a compressed bitstream.
	Compressed
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Partial, "partial"},
	{ExternalConfig, "external_config"},
	{Encrypted, "encrypted"},
	{LSBFirst, "lsb_first"},
	{Compressed, "compressed"},
}

// ParseFlags converts flag names into a Flags set.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for _, fn := range flagNames {
			if fn.name == name {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown image flag %q", raw)
		}
	}
	return f, nil
}

// Has reports whether all bits of other are set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Info is the caller-supplied description of one image load.
type Info struct {
	// Name identifies the image in logs and the journal.
	Name string
	// Firmware is the location of the bitstream, resolved by the engine.
	Firmware string
	// Buf holds the bitstream in memory; when set, engines use it instead of Firmware.
	Buf []byte
	Flags Flags

	// EnableTimeout and DisableTimeout are opaque pass-through metadata for
	// engine drivers; nothing in this module reads them.
	EnableTimeout  time.Duration
	DisableTimeout time.Duration

	// Overlay is the image-specific topology node, or nil.
	Overlay *topology.Node
	// Region optionally names the region the image was built for.
	Region string
}

// Location returns a short description of where the bitstream comes from.
func (i *Info) Location() string {
	if i == nil {
		return ""
	}
	if len(i.Buf) > 0 {
		return fmt.Sprintf("buffer(%d bytes)", len(i.Buf))
	}
	return i.Firmware
}
