package fault

import (
	"errors"
	"fmt"
)

// Sentinel error kinds.
var (
	// ErrBusy means a required exclusive resource (region, engine or
	// interface) is already held. Callers retry under their own policy.
	ErrBusy = errors.New("resource busy")
	// ErrNotFound means a referenced topology node or interface does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrDeviceFailure means the programming engine reported a failed load.
	ErrDeviceFailure = errors.New("device failure")
	// ErrSetupFailure means an interface's topology setup hook failed.
	ErrSetupFailure = errors.New("setup failure")
)

// Error is a classified failure attached to a named resource.
type Error struct {
	Kind     error  // one of the sentinel kinds
	Resource string // "region", "engine", "interface", "node"
	Name     string
	Err      error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Resource, e.Name, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Busy returns an ErrBusy error for the named resource.
func Busy(resource, name string) error {
	return &Error{Kind: ErrBusy, Resource: resource, Name: name}
}

// NotFound returns an ErrNotFound error for the named resource.
func NotFound(resource, name string) error {
	return &Error{Kind: ErrNotFound, Resource: resource, Name: name}
}

// DeviceFailure wraps an engine load error.
func DeviceFailure(name string, err error) error {
	return &Error{Kind: ErrDeviceFailure, Resource: "engine", Name: name, Err: err}
}

// SetupFailure wraps an interface setup hook error.
func SetupFailure(name string, err error) error {
	return &Error{Kind: ErrSetupFailure, Resource: "interface", Name: name, Err: err}
}

// Kind returns the sentinel kind of err, or nil if err is unclassified.
func Kind(err error) error {
	for _, k := range []error{ErrBusy, ErrNotFound, ErrDeviceFailure, ErrSetupFailure} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
