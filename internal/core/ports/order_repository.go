// Package ports defines the contracts between the application core and its adapters:
// repositories, the automation run ledger, settings storage and event publishing.
package ports

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
)

// EligibleCriteria selects orders for a sweep.
type EligibleCriteria struct {
	// Status the order must currently be in.
	Status order.Status
	// EnteredBefore, when set, keeps orders whose last status change is at or before it.
	EnteredBefore *time.Time
	// WithoutShipper keeps only orders with no shipper.
	WithoutShipper bool
	// NotFlaggedOverdue keeps only orders never flagged as overdue.
	NotFlaggedOverdue bool
	// Limit caps the result; zero means no limit.
	Limit int
}

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate with its initial history.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists the aggregate only if the stored row still has the status and
	// version captured in pre. A lost race returns *errs.ConflictError and writes nothing.
	// New history entries are appended; existing ones are never rewritten.
	Update(ctx context.Context, aggregate *order.Order, pre order.Precondition) error

	// Get retrieves an order with its full status history.
	// Returns *errs.ObjectNotFoundError when the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// FindEligible returns orders matching criteria, oldest status change first.
	FindEligible(ctx context.Context, criteria EligibleCriteria) ([]*order.Order, error)
}
