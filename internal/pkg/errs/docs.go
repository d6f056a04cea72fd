// Package errs provides standardized error types for the order automation service.
// Every error type follows the same pattern: a sentinel error variable, a struct
// carrying the details, constructors with and without a cause, Error() and Unwrap().
//
// The sentinels double as the automation error taxonomy:
//   - ErrInvalidTransition: an event is not legal from the order's current status
//   - ErrConflict: an optimistic conditional update lost the race (ConflictSkipped)
//   - ErrObjectNotFound, ErrValueIsInvalid, ErrValueIsOutOfRange, ErrValueIsRequired:
//     lookup and validation failures
//
// Callers classify errors with errors.Is against the sentinels and never inspect
// messages.
package errs
