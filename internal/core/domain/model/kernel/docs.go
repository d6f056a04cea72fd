// Package kernel provides the shared value objects of the order automation domain:
//   - UUID: identifiers for orders, shippers and automation runs, with a stable ordering
//   - Location: a validated latitude/longitude point
//
// Both are immutable and safe for concurrent use. Zero values are invalid and fail
// Validate; use the constructors.
package kernel
