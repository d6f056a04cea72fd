package order

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Status is the lifecycle state of an order. Values are the lowercase strings
// stored in the database and exposed over HTTP.
type Status string

const (
	// Pending is the status of a freshly placed order.
	Pending Status = "pending"
	// Confirmed means the restaurant accepted the order.
	Confirmed Status = "confirmed"
	// Preparing means the kitchen is working on the order.
	Preparing Status = "preparing"
	// Ready means the food is waiting for a shipper.
	Ready Status = "ready"
	// AssignedToShipper means a shipper has been claimed for the order.
	AssignedToShipper Status = "assigned_to_shipper"
	// OutForDelivery means the shipper picked the order up.
	OutForDelivery Status = "out_for_delivery"
	// Delivered means the customer received the order.
	Delivered Status = "delivered"
	// Completed is the final successful state.
	Completed Status = "completed"
	// Cancelled is terminal and reachable only from Pending or Confirmed.
	Cancelled Status = "cancelled"
)

// edge is one row of the transition table.
type edge struct {
	from []Status
	to   Status
}

// getEdges returns the transition table keyed by event.
func getEdges() map[Event]edge {
	return map[Event]edge{
		EventConfirm:         {from: []Status{Pending}, to: Confirmed},
		EventStartPreparing:  {from: []Status{Confirmed}, to: Preparing},
		EventPrepTimeElapsed: {from: []Status{Preparing}, to: Ready},
		EventShipperAssigned: {from: []Status{Ready}, to: AssignedToShipper},
		EventPickedUp:        {from: []Status{AssignedToShipper}, to: OutForDelivery},
		EventDelivered:       {from: []Status{OutForDelivery}, to: Delivered},
		EventComplete:        {from: []Status{Delivered}, to: Completed},
		EventCancel:          {from: []Status{Pending, Confirmed}, to: Cancelled},
	}
}

// AllStatuses lists every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		Pending, Confirmed, Preparing, Ready, AssignedToShipper,
		OutForDelivery, Delivered, Completed, Cancelled,
	}
}

// ParseStatus converts a stored or transported string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate checks that the value is one of the known statuses.
func (s Status) Validate() error {
	for _, known := range AllStatuses() {
		if s == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no event can leave the status.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// RequiresShipper reports whether an order in this status must reference a shipper.
func (s Status) RequiresShipper() bool {
	switch s {
	case AssignedToShipper, OutForDelivery, Delivered, Completed:
		return true
	default:
		return false
	}
}

// Next looks up the transition table.
//
// Returns:
//   - the target status when the event is an outgoing edge of s
//   - *errs.InvalidTransitionError otherwise
//
// Example:
//
//	next, err := order.Pending.Next(order.EventCancel) // Cancelled, nil
//	_, err = order.Ready.Next(order.EventCancel)        // ErrInvalidTransition
func (s Status) Next(event Event) (Status, error) {
	e, ok := getEdges()[event]
	if !ok {
		return "", errs.NewInvalidTransitionErrorWithCause(s.String(), event.String(), fmt.Errorf("unknown event"))
	}
	for _, from := range e.from {
		if from == s {
			return e.to, nil
		}
	}
	return "", errs.NewInvalidTransitionError(s.String(), event.String())
}

// AllowedEvents returns the events that have s as a source, in table order.
func (s Status) AllowedEvents() []Event {
	allowed := make([]Event, 0, 2)
	for _, event := range AllEvents() {
		if _, err := s.Next(event); err == nil {
			allowed = append(allowed, event)
		}
	}
	return allowed
}
