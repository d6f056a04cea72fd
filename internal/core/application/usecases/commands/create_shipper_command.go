package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrCreateShipperCommandIsNotConstructed = errors.New(
	"CreateShipperCommand must be created via NewCreateShipperCommand constructor",
)

// CreateShipperCommand registers a shipper in the directory.
//
// Example:
//
//	location, _ := kernel.NewLocation(10.7769, 106.7009)
//	cmd, _ := NewCreateShipperCommand(kernel.NewUUID(), "Tran Thi B", "+84987654321", location)
type CreateShipperCommand struct {
	shipperID kernel.UUID
	name      string
	phone     string
	location  kernel.Location

	guard guard.ConstructorGuard
}

func NewCreateShipperCommand(
	shipperID kernel.UUID,
	name, phone string,
	location kernel.Location,
) (CreateShipperCommand, error) {
	var nameErr, phoneErr error
	if name == "" {
		nameErr = errs.NewValueIsRequiredError("name")
	}
	if phone == "" {
		phoneErr = errs.NewValueIsRequiredError("phone")
	}
	if err := errors.Join(shipperID.Validate(), nameErr, phoneErr, location.Validate()); err != nil {
		return CreateShipperCommand{}, err
	}

	return CreateShipperCommand{
		shipperID: shipperID,
		name:      name,
		phone:     phone,
		location:  location,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateShipperCommand) Validate() error {
	return c.guard.Validate(ErrCreateShipperCommandIsNotConstructed)
}

func (c CreateShipperCommand) ShipperID() kernel.UUID {
	return c.shipperID
}

func (c CreateShipperCommand) Name() string {
	return c.name
}

func (c CreateShipperCommand) Phone() string {
	return c.phone
}

func (c CreateShipperCommand) Location() kernel.Location {
	return c.location
}
