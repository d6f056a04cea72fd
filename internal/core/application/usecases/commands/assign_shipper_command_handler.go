package commands

import (
	"context"
	"errors"
	"fmt"

	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// AssignShipperCommandHandler allocates a shipper to a ready order.
//
// The shipper claim and the order update are written in one unit of work, both as
// conditional updates:
//   - the claim only succeeds while the stored shipper is still available
//   - the order update only succeeds while the stored order still has the status and
//     version that were read
//
// Either failure rolls the whole allocation back.
//
// Example:
//
//	s, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, services.ErrNoShipperAvailable):
//	    // retry on the next sweep
//	case errors.Is(err, ErrAllocationConflict):
//	    // another allocation took the shipper
//	case errors.Is(err, errs.ErrConflict):
//	    // the order changed underneath us
//	}
type AssignShipperCommandHandler struct {
	uowFactory UoWFactory
	allocator  services.ShipperAllocator
	clock      ports.Clock
}

func NewAssignShipperCommandHandler(uowFactory UoWFactory, clock ports.Clock) AssignShipperCommandHandler {
	return AssignShipperCommandHandler{
		uowFactory: uowFactory,
		allocator:  services.NewShipperAllocator(),
		clock:      clock,
	}
}

// Handle returns the shipper assigned to the order.
func (h AssignShipperCommandHandler) Handle(ctx context.Context, cmd AssignShipperCommand) (*shipper.Shipper, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	shipperRepo := uow.ShipperRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	pre := o.Precondition()
	if expected := cmd.Expected(); expected != nil && *expected != pre {
		return nil, errs.NewConflictError("order", o.ID())
	}

	candidates, err := shipperRepo.GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}

	chosen, err := h.allocator.Allocate(o, candidates, h.clock.Now())
	if err != nil {
		return nil, err
	}

	if err = shipperRepo.Claim(ctx, chosen.ID(), o.ID()); err != nil {
		if errors.Is(err, shipper.ErrAlreadyClaimed) {
			return nil, fmt.Errorf("%w: shipper %s: %w", ErrAllocationConflict, chosen.ID(), err)
		}
		return nil, err
	}

	if err = orderRepo.Update(ctx, o, pre); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return chosen, nil
}
