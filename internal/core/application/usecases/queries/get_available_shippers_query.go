package queries

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/guard"
)

var ErrGetAvailableShippersQueryIsNotConstructed = errors.New(
	"GetAvailableShippersQuery must be created via NewGetAvailableShippersQuery constructor",
)

// GetAvailableShippersQuery lists the shippers an allocation could pick, in the order
// the allocator would pick them.
type GetAvailableShippersQuery struct {
	guard guard.ConstructorGuard
}

func NewGetAvailableShippersQuery() GetAvailableShippersQuery {
	return GetAvailableShippersQuery{guard: guard.NewConstructorGuard()}
}

func (q GetAvailableShippersQuery) Validate() error {
	return q.guard.Validate(ErrGetAvailableShippersQueryIsNotConstructed)
}

type GetAvailableShippersQueryResponse struct {
	ID       kernel.UUID
	Name     string
	Phone    string
	Location kernel.Location
}
