package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/regiongate/internal/ctxlog"
)

// ValidateRegistry checks that every registered driver is usable before
// the topology is attached.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	r.mu.RLock()
	for tag, d := range r.interfaceDrivers {
		if d == nil || d.New == nil {
			errs = append(errs, fmt.Sprintf("interface driver '%s': missing constructor", tag))
		}
		if _, clash := r.engineDrivers[tag]; clash {
			errs = append(errs, fmt.Sprintf("compatible '%s' has both an interface and an engine driver", tag))
		}
	}
	for tag, d := range r.engineDrivers {
		if d == nil || d.New == nil {
			errs = append(errs, fmt.Sprintf("engine driver '%s': missing constructor", tag))
		}
	}
	counts := []any{"interface_drivers", len(r.interfaceDrivers), "engine_drivers", len(r.engineDrivers)}
	r.mu.RUnlock()

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validation passed.", counts...)
	return nil
}
