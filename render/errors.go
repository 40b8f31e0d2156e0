package render

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineActive is returned by NewEngine while another engine has not
	// been shut down.
	ErrEngineActive = errors.New("render: an engine is already active")

	// ErrNotAllocated is returned when an attribute update targets a buffer
	// that was never allocated.
	ErrNotAllocated = errors.New("render: attribute buffer not allocated")

	// ErrDestroyed is returned by operations on destroyed resources.
	ErrDestroyed = errors.New("render: resource destroyed")

	// ErrOutOfRange is returned for offsets, sizes and pixel coordinates
	// outside a resource.
	ErrOutOfRange = errors.New("render: out of range")
)

// AllocationError reports that the backend refused to create or resize a
// resource.
type AllocationError struct {
	Resource string
	Reason   string
	Err      error
}

func (e *AllocationError) Error() string {
	msg := fmt.Sprintf("allocate %s: %s", e.Resource, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AllocationError) Unwrap() error { return e.Err }

// ValidationError names the first declared program input without data.
type ValidationError struct {
	Program string
	Kind    string // "attribute", "uniform", "texture" or "index"
	Name    string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("program %q: %s %q %s", e.Program, e.Kind, e.Name, e.Reason)
}

// BindingError reports data assigned to a name the program does not
// declare, or with a type the declaration does not accept.
type BindingError struct {
	Program string
	Kind    string
	Name    string
	Err     error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("program %q: set %s %q: %v", e.Program, e.Kind, e.Name, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// IncompleteTargetError reports a frame buffer that cannot be rendered to.
type IncompleteTargetError struct {
	Reason string
	Err    error
}

func (e *IncompleteTargetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame buffer incomplete: %s: %v", e.Reason, e.Err)
	}
	return "frame buffer incomplete: " + e.Reason
}

func (e *IncompleteTargetError) Unwrap() error { return e.Err }
