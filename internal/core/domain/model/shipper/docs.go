// Package shipper models delivery staff as seen by the allocator: identity, contact,
// position and whether they can take an order right now.
//
// A shipper holds at most one order. Claim takes an available shipper out of the pool
// for an order, Release returns them once the order is delivered or a claim is rolled back.
package shipper
