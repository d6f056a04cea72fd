package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/core/ports"
)

// TransitionOrderCommandHandler applies one explicit event to an order.
//
// Side effects that live outside the order aggregate share its transaction:
//   - shipperAssigned claims the named shipper (ErrAllocationConflict when taken)
//   - delivered releases the shipper back to the pool
//
// The order write is conditional on the status and version read at the start, so a
// concurrent scheduler step makes this call fail with errs.ErrConflict instead of
// overwriting it. Store calls run under the timeout set with WithTimeout and fail with
// ErrStoreTimeout when it expires.
type TransitionOrderCommandHandler struct {
	uowFactory UoWFactory
	settings   ports.SettingsProvider
	clock      ports.Clock
	timeout    time.Duration
}

func NewTransitionOrderCommandHandler(
	uowFactory UoWFactory,
	settings ports.SettingsProvider,
	clock ports.Clock,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		settings:   settings,
		clock:      clock,
	}
}

// WithTimeout returns a copy of the handler that bounds each call by timeout.
func (h TransitionOrderCommandHandler) WithTimeout(timeout time.Duration) TransitionOrderCommandHandler {
	h.timeout = timeout
	return h
}

// Handle fires the event and returns the updated order.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	o, err := h.transition(ctx, cmd)
	return o, storeTimeout(err)
}

func (h TransitionOrderCommandHandler) transition(ctx context.Context, cmd TransitionOrderCommand) (*order.Order, error) {
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
	heldBy := o.Shipper()
	err = o.Fire(order.Trigger{
		Event:            cmd.Event(),
		At:               h.clock.Now(),
		Note:             cmd.Note(),
		Reason:           cmd.Reason(),
		ShipperID:        cmd.ShipperID(),
		PreparingToReady: h.settings.Current().PreparingToReady,
	})
	if err != nil {
		return nil, err
	}

	switch cmd.Event() {
	case order.EventShipperAssigned:
		if err = shipperRepo.Claim(ctx, *o.Shipper(), o.ID()); err != nil {
			if errors.Is(err, shipper.ErrAlreadyClaimed) {
				return nil, fmt.Errorf("%w: %w", ErrAllocationConflict, err)
			}
			return nil, err
		}
	case order.EventDelivered:
		if heldBy != nil {
			err = shipperRepo.Release(ctx, *heldBy, o.ID())
			if err != nil && !errors.Is(err, shipper.ErrNotHoldingOrder) {
				return nil, err
			}
		}
	}

	if err = orderRepo.Update(ctx, o, pre); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
