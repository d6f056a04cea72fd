package services

import (
	"errors"
	"slices"
	"time"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/pkg/errs"
)

// ErrNoShipperAvailable is returned when none of the candidates can take the order.
// It is retryable: the next assign-shippers sweep tries again.
var ErrNoShipperAvailable = errors.New("no shipper available")

// ShipperAllocator chooses the shipper for a ready order.
//
// Selection policy:
//   - only available shippers are considered
//   - candidates are ordered by id ascending and the first one wins, so the same
//     inputs always produce the same choice
//
// Example usage:
//
//	allocator := services.NewShipperAllocator()
//	s, err := allocator.Allocate(o, shippers, time.Now())
//	if errors.Is(err, services.ErrNoShipperAvailable) {
//	    // leave the order ready for the next sweep
//	}
type ShipperAllocator struct{}

func NewShipperAllocator() ShipperAllocator {
	return ShipperAllocator{}
}

// Allocate claims the chosen shipper and fires shipperAssigned on the order.
//
// Returns:
//   - the claimed shipper
//   - *errs.InvalidTransitionError when the order is not ready or already has a shipper
//   - ErrNoShipperAvailable when no candidate is available
//
// Neither aggregate is changed when an error is returned.
func (a ShipperAllocator) Allocate(o *order.Order, shippers []*shipper.Shipper, at time.Time) (*shipper.Shipper, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Status() != order.Ready || o.Shipper() != nil {
		return nil, errs.NewInvalidTransitionErrorWithCause(o.Status().String(), order.EventShipperAssigned.String(),
			errors.New("order is not ready for allocation"))
	}

	chosen, err := a.choose(shippers)
	if err != nil {
		return nil, err
	}

	if err := chosen.Claim(o.ID()); err != nil {
		return nil, err
	}

	shipperID := chosen.ID()
	if err := o.Fire(order.Trigger{Event: order.EventShipperAssigned, At: at, ShipperID: &shipperID}); err != nil {
		_ = chosen.Release(o.ID())
		return nil, err
	}

	return chosen, nil
}

func (a ShipperAllocator) choose(shippers []*shipper.Shipper) (*shipper.Shipper, error) {
	candidates := make([]*shipper.Shipper, 0, len(shippers))
	for _, s := range shippers {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if s.Available() {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoShipperAvailable
	}

	slices.SortFunc(candidates, func(x, y *shipper.Shipper) int {
		return x.ID().Compare(y.ID())
	})
	return candidates[0], nil
}
