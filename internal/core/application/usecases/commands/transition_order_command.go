package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand is an explicit status event sent by an operator, the manual
// override path next to the scheduler.
//
// Example:
//
//	cmd, err := NewTransitionOrderCommand(orderID, order.EventCancel, "", "customer request", nil)
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, errs.ErrInvalidTransition) {
//	    // 400 to the caller
//	}
type TransitionOrderCommand struct {
	orderID   kernel.UUID
	event     order.Event
	note      string
	reason    string
	shipperID *kernel.UUID

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand validates identifiers and the event name. Event-specific
// requirements (reason, shipper) are enforced by the state machine.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	event order.Event,
	note, reason string,
	shipperID *kernel.UUID,
) (TransitionOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), event.Validate()); err != nil {
		return TransitionOrderCommand{}, err
	}
	if shipperID != nil {
		if err := shipperID.Validate(); err != nil {
			return TransitionOrderCommand{}, err
		}
	}

	return TransitionOrderCommand{
		orderID:   orderID,
		event:     event,
		note:      note,
		reason:    reason,
		shipperID: shipperID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c TransitionOrderCommand) Event() order.Event {
	return c.event
}

func (c TransitionOrderCommand) Note() string {
	return c.note
}

func (c TransitionOrderCommand) Reason() string {
	return c.reason
}

// ShipperID is the shipper to assign; only used with shipperAssigned.
func (c TransitionOrderCommand) ShipperID() *kernel.UUID {
	return c.shipperID
}
