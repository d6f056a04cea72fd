// Package guard provides ConstructorGuard, a marker embedded in value objects,
// commands and queries so that zero values created without their constructor
// can be detected and rejected.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard records whether the enclosing value was built by its constructor.
// The zero value is "not constructed".
//
// Example:
//
//	type RunSweepCommand struct {
//	    kind  automation.Kind
//	    guard guard.ConstructorGuard
//	}
//
//	func (c RunSweepCommand) Validate() error {
//	    return c.guard.Validate(ErrRunSweepCommandIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guard is a zero value, and nil otherwise.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
