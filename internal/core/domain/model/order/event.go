package order

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Event names an input to the state machine.
type Event string

const (
	EventConfirm         Event = "confirm"
	EventStartPreparing  Event = "startPreparing"
	EventPrepTimeElapsed Event = "prepTimeElapsed"
	EventShipperAssigned Event = "shipperAssigned"
	EventPickedUp        Event = "pickedUp"
	EventDelivered       Event = "delivered"
	EventComplete        Event = "complete"
	EventCancel          Event = "cancel"
)

// AllEvents lists every event in lifecycle order.
func AllEvents() []Event {
	return []Event{
		EventConfirm, EventStartPreparing, EventPrepTimeElapsed, EventShipperAssigned,
		EventPickedUp, EventDelivered, EventComplete, EventCancel,
	}
}

// ParseEvent converts a transported string into an Event.
func ParseEvent(s string) (Event, error) {
	event := Event(s)
	if err := event.Validate(); err != nil {
		return "", err
	}
	return event, nil
}

// Validate checks that the value is one of the known events.
func (e Event) Validate() error {
	if _, ok := getEdges()[e]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("event is invalid", fmt.Errorf("%q is not a valid event", string(e)))
	}
	return nil
}

func (e Event) String() string {
	return string(e)
}

func (e Event) defaultNote() string {
	switch e {
	case EventConfirm:
		return "Order confirmed"
	case EventStartPreparing:
		return "Kitchen started preparing the order"
	case EventPrepTimeElapsed:
		return "Order is ready for pickup"
	case EventShipperAssigned:
		return "Shipper assigned to the order"
	case EventPickedUp:
		return "Shipper picked up the order"
	case EventDelivered:
		return "Order delivered to the customer"
	case EventComplete:
		return "Order completed"
	case EventCancel:
		return "Order cancelled"
	default:
		return string(e)
	}
}
