package app

import (
	"github.com/specialistvlad/regiongate/internal/registry"
	"github.com/specialistvlad/regiongate/modules/clockgate"
	"github.com/specialistvlad/regiongate/modules/fileengine"
	"github.com/specialistvlad/regiongate/modules/passthrough"
)

// coreModules returns the driver modules registered when the caller
// supplies none.
func coreModules() []registry.Module {
	return []registry.Module{
		&passthrough.Module{},
		&clockgate.Module{},
		&fileengine.Module{},
	}
}
