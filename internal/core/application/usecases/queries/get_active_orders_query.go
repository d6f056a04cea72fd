// Package queries contains read operations for retrieving system state.
// Queries bypass the aggregates and read optimized models straight from storage.
package queries

import (
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/guard"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery lists orders that have not reached a terminal status.
//
// Example:
//
//	query := NewGetActiveOrdersQuery()
//	orders, err := handler.Handle(ctx, query)
//	for _, o := range orders {
//	    fmt.Printf("%s %s since %s\n", o.ID, o.Status, o.StatusChangedAt)
//	}
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// GetActiveOrdersQueryResponse is the active order read model.
type GetActiveOrdersQueryResponse struct {
	ID              kernel.UUID
	CustomerID      string
	Status          order.Status
	ShipperID       *kernel.UUID
	TotalAmount     int64
	DeliveryAddress string
	StatusChangedAt time.Time
	OverdueAt       *time.Time
}
