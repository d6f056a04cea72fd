package commands

import "errors"

var (
	// ErrAllocationConflict is returned when the chosen shipper was claimed by a
	// concurrent allocation. The order stays ready for the next sweep.
	ErrAllocationConflict = errors.New("allocation conflict")
	// ErrStoreTimeout is returned when a store call of one step exceeds the step timeout.
	ErrStoreTimeout = errors.New("store timeout")
)
