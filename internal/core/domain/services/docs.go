// Package services provides domain services that coordinate more than one aggregate.
//
// The package includes:
//   - ShipperAllocator: picks an available shipper for a ready order and applies the
//     claim to both aggregates in memory
//
// Persisting the result atomically is the job of the application layer.
package services
