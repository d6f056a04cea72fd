package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/guard"
)

var ErrAssignShipperCommandIsNotConstructed = errors.New(
	"AssignShipperCommand must be created via NewAssignShipperCommand constructor",
)

// AssignShipperCommand asks the allocator to find a shipper for one ready order.
// When expected is set, the order must still match it when read back; otherwise the
// handler reports errs.ErrConflict.
type AssignShipperCommand struct {
	orderID  kernel.UUID
	expected *order.Precondition

	guard guard.ConstructorGuard
}

func NewAssignShipperCommand(orderID kernel.UUID, expected *order.Precondition) (AssignShipperCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignShipperCommand{}, err
	}
	return AssignShipperCommand{
		orderID:  orderID,
		expected: expected,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignShipperCommand) Validate() error {
	return c.guard.Validate(ErrAssignShipperCommandIsNotConstructed)
}

func (c AssignShipperCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AssignShipperCommand) Expected() *order.Precondition {
	return c.expected
}
