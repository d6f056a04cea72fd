package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

var (
	// ErrPreparationNotElapsed is the cause attached when prepTimeElapsed fires too early.
	ErrPreparationNotElapsed = errors.New("preparation time has not elapsed")
	// ErrShipperAlreadyAssigned is the cause attached when an order already has a shipper.
	ErrShipperAlreadyAssigned = errors.New("order already has a shipper")
	// ErrTerminalStatus is the cause attached for events fired at completed or cancelled orders.
	ErrTerminalStatus = errors.New("order is in a terminal status")
	// ErrStaleChange is returned by Apply when the change was computed from another status.
	ErrStaleChange = errors.New("change was computed from a different status")
)

// Trigger is one event together with the context needed to evaluate it.
type Trigger struct {
	Event Event
	// At is the trigger time. It becomes the history entry time and every lifecycle timestamp.
	At time.Time
	// Note overrides the default history note.
	Note string
	// Reason is required for cancel.
	Reason string
	// ShipperID is required for shipperAssigned.
	ShipperID *kernel.UUID
	// PreparingToReady is the minimum time in preparing before prepTimeElapsed is accepted.
	PreparingToReady time.Duration
}

// Change is the outcome of Transition. It describes every field Apply will write.
type Change struct {
	From  Status
	To    Status
	Event Event
	Entry HistoryEntry

	ShipperID    *kernel.UUID
	CancelReason string

	SetAssignedAt   bool
	SetPickedUpAt   bool
	SetDeliveredAt  bool
	SetCancelledAt  bool
	MarkPaymentPaid bool
}

// Transition evaluates a trigger against an order without mutating it.
//
// Rules beyond the edge table:
//   - prepTimeElapsed requires At minus the time the order entered preparing to be at
//     least PreparingToReady
//   - shipperAssigned requires a shipper and rejects orders that already have one
//   - cancel requires a non-blank reason
//   - delivered on a cash order marks payment paid
//
// Returns:
//   - the Change to apply
//   - *errs.InvalidTransitionError for illegal or premature events
//   - *errs.ValueIsRequiredError for missing trigger data
func Transition(o *Order, t Trigger) (Change, error) {
	if err := o.Validate(); err != nil {
		return Change{}, err
	}
	if err := t.Event.Validate(); err != nil {
		return Change{}, err
	}
	if t.At.IsZero() {
		return Change{}, errs.NewValueIsRequiredError("trigger time")
	}
	if o.status.IsTerminal() {
		return Change{}, errs.NewInvalidTransitionErrorWithCause(o.status.String(), t.Event.String(), ErrTerminalStatus)
	}

	to, err := o.status.Next(t.Event)
	if err != nil {
		return Change{}, err
	}

	change := Change{From: o.status, To: to, Event: t.Event}
	switch t.Event {
	case EventPrepTimeElapsed:
		entered, ok := o.EnteredStatusAt(Preparing)
		if !ok {
			return Change{}, errs.NewInvalidTransitionErrorWithCause(o.status.String(), t.Event.String(), ErrPreparationNotElapsed)
		}
		if elapsed := t.At.Sub(entered); elapsed < t.PreparingToReady {
			return Change{}, errs.NewInvalidTransitionErrorWithCause(o.status.String(), t.Event.String(),
				fmt.Errorf("%w: %s of %s", ErrPreparationNotElapsed, elapsed.Round(time.Second), t.PreparingToReady))
		}
	case EventShipperAssigned:
		if o.shipperID != nil {
			return Change{}, errs.NewInvalidTransitionErrorWithCause(o.status.String(), t.Event.String(), ErrShipperAlreadyAssigned)
		}
		if t.ShipperID == nil {
			return Change{}, errs.NewValueIsRequiredError("shipper")
		}
		if err := t.ShipperID.Validate(); err != nil {
			return Change{}, err
		}
		change.ShipperID = cloneUUID(t.ShipperID)
		change.SetAssignedAt = true
	case EventPickedUp:
		change.SetPickedUpAt = true
	case EventDelivered:
		change.SetDeliveredAt = true
		change.MarkPaymentPaid = o.payment.Method == PaymentCash && o.payment.Status != PaymentPaid
	case EventCancel:
		reason := strings.TrimSpace(t.Reason)
		if reason == "" {
			return Change{}, errs.NewValueIsRequiredError("cancel reason")
		}
		change.CancelReason = reason
		change.SetCancelledAt = true
	}

	change.Entry = HistoryEntry{Status: to, At: t.At, Note: noteFor(t)}
	return change, nil
}

// Apply writes a Change computed by Transition. It is the only mutator of status,
// shipper, lifecycle timestamps and history, and appends exactly one history entry.
func (o *Order) Apply(c Change) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if c.From != o.status {
		return errs.NewInvalidTransitionErrorWithCause(o.status.String(), c.Event.String(), ErrStaleChange)
	}
	if err := o.checkOnce(c); err != nil {
		return err
	}

	at := c.Entry.At
	if c.ShipperID != nil {
		o.shipperID = cloneUUID(c.ShipperID)
	}
	if c.SetAssignedAt {
		o.assignedAt = &at
	}
	if c.SetPickedUpAt {
		o.pickedUpAt = &at
	}
	if c.SetDeliveredAt {
		o.deliveredAt = &at
	}
	if c.SetCancelledAt {
		o.cancelledAt = &at
		o.cancelReason = c.CancelReason
	}
	if c.MarkPaymentPaid {
		o.payment.Status = PaymentPaid
	}

	o.status = c.To
	o.history = append(o.history, c.Entry)
	o.updatedAt = at
	o.version++

	o.raise(StatusChanged{
		OrderID:   o.id,
		From:      c.From,
		To:        c.To,
		Event:     c.Event,
		ShipperID: cloneUUID(o.shipperID),
		Note:      c.Entry.Note,
		At:        at,
	})
	return nil
}

// Fire is Transition followed by Apply.
func (o *Order) Fire(t Trigger) error {
	change, err := Transition(o, t)
	if err != nil {
		return err
	}
	return o.Apply(change)
}

func (o *Order) checkOnce(c Change) error {
	already := func(name string) error {
		return errs.NewInvalidTransitionErrorWithCause(o.status.String(), c.Event.String(),
			fmt.Errorf("%s is already set", name))
	}
	switch {
	case c.SetAssignedAt && o.assignedAt != nil:
		return already("assignedAt")
	case c.SetPickedUpAt && o.pickedUpAt != nil:
		return already("pickedUpAt")
	case c.SetDeliveredAt && o.deliveredAt != nil:
		return already("deliveredAt")
	case c.SetCancelledAt && o.cancelledAt != nil:
		return already("cancelledAt")
	case c.ShipperID != nil && o.shipperID != nil:
		return already("shipper")
	}
	return nil
}

func noteFor(t Trigger) string {
	if note := strings.TrimSpace(t.Note); note != "" {
		return note
	}
	if t.Event == EventCancel {
		return fmt.Sprintf("%s: %s", t.Event.defaultNote(), strings.TrimSpace(t.Reason))
	}
	return t.Event.defaultNote()
}
