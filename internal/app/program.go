package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
	"github.com/specialistvlad/regiongate/internal/fault"
	"github.com/specialistvlad/regiongate/internal/image"
	"github.com/specialistvlad/regiongate/internal/region"
)

// ProgramRequest selects a region and an image file.
type ProgramRequest struct {
	// Region names the target; empty means the image's own region, or the
	// only region when there is exactly one.
	Region string `json:"region,omitempty"`
	Image  string `json:"image"`
	// Keep leaves the interfaces held after a successful program. Without
	// it they are released right away so the region can be reprogrammed.
	Keep bool `json:"keep,omitempty"`
}

// Program loads an image file into a region.
func (a *App) Program(ctx context.Context, req ProgramRequest) (*region.Region, error) {
	ctx = a.Context(ctx)
	if req.Image == "" {
		return nil, fmt.Errorf("an image file is required")
	}
	info, err := a.loader.LoadImage(ctx, a.tree, req.Image)
	if err != nil {
		return nil, err
	}
	r, err := a.selectRegion(req.Region, info)
	if err != nil {
		return nil, err
	}
	if err := r.Program(ctx, info); err != nil {
		return r, err
	}
	if !req.Keep {
		if err := r.ReleaseInterfaces(ctx); err != nil {
			return r, err
		}
		ctxlog.FromContext(ctx).Debug("Interfaces released after program.", "region", r.Name())
	}
	return r, nil
}

// Release releases the interfaces a region holds after a program.
func (a *App) Release(ctx context.Context, name string) error {
	r, ok := a.registry.Region(name)
	if !ok {
		return fault.NotFound("region", name)
	}
	return r.ReleaseInterfaces(a.Context(ctx))
}

// selectRegion picks the region named by the request or the image, by
// region name or node path, or the only attached region.
func (a *App) selectRegion(name string, info *image.Info) (*region.Region, error) {
	if name == "" {
		name = info.Region
	}
	if name != "" {
		r, ok := a.registry.FindRegion(func(r *region.Region) bool {
			return r.Name() == name || (r.Node() != nil && r.Node().Path().String() == name)
		})
		if !ok {
			return nil, fault.NotFound("region", name)
		}
		return r, nil
	}
	regions := a.registry.Regions()
	if len(regions) != 1 {
		return nil, fmt.Errorf("image %q names no region and %d regions are attached", info.Name, len(regions))
	}
	return regions[0], nil
}
