package mesodetect

import "fmt"

// ConfigError wraps a malformed or incomplete configuration (spec.md §7).
// It is unrecoverable: the orchestrator never retries past one.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %v", e.Err) }
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError.
func NewConfigError(err error) error { return &ConfigError{Err: err} }

// InputError wraps a problem with the supplied image/basemap/station
// identifier rather than the configuration itself.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return fmt.Sprintf("input error: %v", e.Err) }
func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err as an InputError.
func NewInputError(err error) error { return &InputError{Err: err} }

// InternalConsistencyError marks a raster invariant violation produced by
// one of the pipeline's own components. Its presence indicates a bug in
// this module, not bad input.
type InternalConsistencyError struct {
	Component string
	Err       error
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency error in %s: %v", e.Component, e.Err)
}
func (e *InternalConsistencyError) Unwrap() error { return e.Err }

// NewInternalConsistencyError wraps err as an InternalConsistencyError
// attributed to component.
func NewInternalConsistencyError(component string, err error) error {
	return &InternalConsistencyError{Component: component, Err: err}
}
