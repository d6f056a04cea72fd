// Package order implements the Order aggregate and the status state machine that
// drives it. The engine is the single writer-of-record for an order's status,
// shipper, lifecycle timestamps and status history.
//
// The package includes:
//   - Status and Event: the lifecycle states and the events that move between them
//   - Transition: a pure function computing a Change for (order, trigger) without mutating
//   - Order.Apply / Order.Fire: the only way to mutate lifecycle fields
//   - Precondition: the (id, status, version) token used for conditional writes
//
// Lifecycle:
//
//	pending ─confirm─> confirmed ─startPreparing─> preparing ─prepTimeElapsed─> ready
//	   │                  │                                                     │
//	   └──────cancel──────┴──> cancelled (terminal)                    shipperAssigned
//	                                                                            │
//	completed <─complete─ delivered <─delivered─ out_for_delivery <─pickedUp─ assigned_to_shipper
//
// Business rules:
//   - Any event not in the edge table fails with errs.ErrInvalidTransition and leaves the order unchanged
//   - Every successful transition appends exactly one status history entry
//   - prepTimeElapsed re-checks the time spent in preparing even when the caller already did
//   - The shipper is set once, by shipperAssigned, and never cleared here
package order
