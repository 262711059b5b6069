package hooks

import (
	"errors"
	"fmt"
)

var (
	// ErrExtensionFailure matches every handler failure.
	ErrExtensionFailure = errors.New("hooks: extension failure")
	// ErrReductionAborted matches a failed reduce chain.
	ErrReductionAborted = errors.New("hooks: reduction aborted")
	// ErrRegistrySealed is returned by Register after Seal.
	ErrRegistrySealed = errors.New("hooks: registry sealed")
	// ErrDuplicateExtension is returned when an extension ID is registered twice.
	ErrDuplicateExtension = errors.New("hooks: duplicate extension")
)

// ExtensionError is one handler's failure, including recovered panics.
type ExtensionError struct {
	ExtensionID string
	Hook        string
	Err         error
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %s on %s: %v", e.ExtensionID, e.Hook, e.Err)
}

func (e *ExtensionError) Unwrap() []error {
	return []error{ErrExtensionFailure, e.Err}
}

// ReductionError aborts a reduce chain. No partial value accompanies it.
type ReductionError struct {
	Hook string
	// ExtensionID is empty when the chain stopped because the context ended.
	ExtensionID string
	Err         error
}

func (e *ReductionError) Error() string {
	if e.ExtensionID == "" {
		return fmt.Sprintf("reduction %s aborted: %v", e.Hook, e.Err)
	}
	return fmt.Sprintf("reduction %s aborted by extension %s: %v", e.Hook, e.ExtensionID, e.Err)
}

func (e *ReductionError) Unwrap() []error {
	return []error{ErrReductionAborted, e.Err}
}
