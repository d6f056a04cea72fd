package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
	// ErrHistoryMismatch is returned when the status history does not end in the current status.
	ErrHistoryMismatch = errors.New("status history does not match current status")
	// ErrShipperMismatch is returned when shipper presence contradicts the status.
	ErrShipperMismatch = errors.New("shipper presence does not match status")
)

// Order is the aggregate root of the order lifecycle. Items, delivery info and the
// customer are read-only inputs; status, shipper, lifecycle timestamps and the status
// history are written only through Apply.
//
// Invariants:
//   - statusHistory is non-empty and its last entry's status equals status
//   - shipper is set iff status is assigned_to_shipper or later (cancelled orders have none)
//   - assignedAt, pickedUpAt, deliveredAt and cancelledAt are each set at most once
//
// Example usage:
//
//	o, err := order.NewOrder(kernel.NewUUID(), "customer-1", items, delivery, order.PaymentCash, time.Now())
//	if err != nil {
//	    // Handle validation error
//	}
//	err = o.Fire(order.Trigger{Event: order.EventConfirm, At: time.Now()})
type Order struct {
	id           kernel.UUID
	customerID   string
	items        []Item
	totalAmount  int64
	delivery     DeliveryInfo
	payment      Payment
	status       Status
	history      []HistoryEntry
	shipperID    *kernel.UUID
	createdAt    time.Time
	updatedAt    time.Time
	assignedAt   *time.Time
	pickedUpAt   *time.Time
	deliveredAt  *time.Time
	cancelledAt  *time.Time
	cancelReason string
	overdueAt    *time.Time
	// version is the stored row version plus one per write since loading.
	version      int64
	domainEvents []DomainEvent
	guard        guard.ConstructorGuard
}

// NewOrder places a new order in Pending status with a single history entry.
//
// Parameters:
//   - id: Unique identifier for the order
//   - customerID: Opaque customer reference (must be non-empty)
//   - items: Order lines (at least one, positive quantity, non-negative price)
//   - delivery: Address and phone are required
//   - method: Payment method; payment starts pending
//   - now: Placement time, recorded as createdAt and in the first history entry
//
// The total amount is computed from the items.
func NewOrder(
	id kernel.UUID,
	customerID string,
	items []Item,
	delivery DeliveryInfo,
	method PaymentMethod,
	now time.Time,
) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(customerID) == "" {
		return nil, errs.NewValueIsRequiredError("customer id")
	}
	if len(items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}
	var total int64
	for _, item := range items {
		if err := item.validate(); err != nil {
			return nil, err
		}
		total += int64(item.Quantity) * item.UnitPrice
	}
	if err := delivery.validate(); err != nil {
		return nil, err
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if now.IsZero() {
		return nil, errs.NewValueIsRequiredError("created at")
	}

	return &Order{
		id:          id,
		customerID:  customerID,
		items:       slices.Clone(items),
		totalAmount: total,
		delivery:    delivery,
		payment:     Payment{Method: method, Status: PaymentPending},
		status:      Pending,
		history:     []HistoryEntry{{Status: Pending, At: now, Note: "Order placed"}},
		createdAt:   now,
		updatedAt:   now,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Snapshot is the full persisted state of an order. Repositories build it from
// storage rows and pass it to RestoreOrder.
type Snapshot struct {
	ID           kernel.UUID
	CustomerID   string
	Items        []Item
	TotalAmount  int64
	Delivery     DeliveryInfo
	Payment      Payment
	Status       Status
	History      []HistoryEntry
	ShipperID    *kernel.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AssignedAt   *time.Time
	PickedUpAt   *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
	OverdueAt    *time.Time
	Version      int64
}

// RestoreOrder rebuilds an aggregate from persisted state and checks its invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	if err := s.ID.Validate(); err != nil {
		return nil, err
	}
	if err := s.Status.Validate(); err != nil {
		return nil, err
	}
	if err := errors.Join(s.Payment.Method.Validate(), s.Payment.Status.Validate()); err != nil {
		return nil, err
	}

	o := &Order{
		id:           s.ID,
		customerID:   s.CustomerID,
		items:        slices.Clone(s.Items),
		totalAmount:  s.TotalAmount,
		delivery:     s.Delivery,
		payment:      s.Payment,
		status:       s.Status,
		history:      slices.Clone(s.History),
		shipperID:    cloneUUID(s.ShipperID),
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
		assignedAt:   cloneTime(s.AssignedAt),
		pickedUpAt:   cloneTime(s.PickedUpAt),
		deliveredAt:  cloneTime(s.DeliveredAt),
		cancelledAt:  cloneTime(s.CancelledAt),
		cancelReason: s.CancelReason,
		overdueAt:    cloneTime(s.OverdueAt),
		version:      s.Version,
		guard:        guard.NewConstructorGuard(),
	}
	if err := o.checkInvariants(); err != nil {
		return nil, err
	}
	return o, nil
}

// Snapshot exports the aggregate state for persistence.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:           o.id,
		CustomerID:   o.customerID,
		Items:        slices.Clone(o.items),
		TotalAmount:  o.totalAmount,
		Delivery:     o.delivery,
		Payment:      o.payment,
		Status:       o.status,
		History:      slices.Clone(o.history),
		ShipperID:    cloneUUID(o.shipperID),
		CreatedAt:    o.createdAt,
		UpdatedAt:    o.updatedAt,
		AssignedAt:   cloneTime(o.assignedAt),
		PickedUpAt:   cloneTime(o.pickedUpAt),
		DeliveredAt:  cloneTime(o.deliveredAt),
		CancelledAt:  cloneTime(o.cancelledAt),
		CancelReason: o.cancelReason,
		OverdueAt:    cloneTime(o.overdueAt),
		Version:      o.version,
	}
}

// Validate ensures the Order was built by a constructor and still satisfies its invariants.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	if err := o.guard.Validate(ErrOrderIsNotConstructed); err != nil {
		return err
	}
	return o.checkInvariants()
}

func (o *Order) checkInvariants() error {
	if len(o.history) == 0 || o.history[len(o.history)-1].Status != o.status {
		return ErrHistoryMismatch
	}
	if o.status.RequiresShipper() != (o.shipperID != nil) {
		return fmt.Errorf("%w: status %s", ErrShipperMismatch, o.status)
	}
	return nil
}

// IsEqual compares two orders by identifier.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the opaque customer reference.
func (o *Order) CustomerID() string {
	return o.customerID
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	return slices.Clone(o.items)
}

// TotalAmount returns the order total in minor currency units.
func (o *Order) TotalAmount() int64 {
	return o.totalAmount
}

// Delivery returns the delivery info.
func (o *Order) Delivery() DeliveryInfo {
	return o.delivery
}

// Payment returns the payment state.
func (o *Order) Payment() Payment {
	return o.payment
}

// Status returns the current status.
func (o *Order) Status() Status {
	return o.status
}

// History returns a copy of the status history, oldest first.
func (o *Order) History() []HistoryEntry {
	return slices.Clone(o.history)
}

// Shipper returns the assigned shipper's ID, or nil.
func (o *Order) Shipper() *kernel.UUID {
	return cloneUUID(o.shipperID)
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Order) AssignedAt() *time.Time {
	return cloneTime(o.assignedAt)
}

func (o *Order) PickedUpAt() *time.Time {
	return cloneTime(o.pickedUpAt)
}

func (o *Order) DeliveredAt() *time.Time {
	return cloneTime(o.deliveredAt)
}

func (o *Order) CancelledAt() *time.Time {
	return cloneTime(o.cancelledAt)
}

func (o *Order) CancelReason() string {
	return o.cancelReason
}

// OverdueAt returns when the order was flagged as overdue, or nil.
func (o *Order) OverdueAt() *time.Time {
	return cloneTime(o.overdueAt)
}

// Version returns the optimistic-concurrency version.
func (o *Order) Version() int64 {
	return o.version
}

// StatusChangedAt returns the time of the last history entry.
func (o *Order) StatusChangedAt() time.Time {
	if len(o.history) == 0 {
		return time.Time{}
	}
	return o.history[len(o.history)-1].At
}

// EnteredStatusAt returns when the order most recently entered status s.
func (o *Order) EnteredStatusAt(s Status) (time.Time, bool) {
	for i := len(o.history) - 1; i >= 0; i-- {
		if o.history[i].Status == s {
			return o.history[i].At, true
		}
	}
	return time.Time{}, false
}

// Precondition is the token a conditional update is keyed on.
type Precondition struct {
	ID      kernel.UUID
	Status  Status
	Version int64
}

// Precondition captures the state observed before a mutation.
func (o *Order) Precondition() Precondition {
	return Precondition{ID: o.id, Status: o.status, Version: o.version}
}

// FlagOverdue marks an order that has been out for delivery for at least limit and
// records a DeliveryOverdue event. Status is not changed and an order is flagged once.
//
// Returns:
//   - true when the order was flagged by this call
//   - *errs.InvalidTransitionError when the order is not out for delivery
func (o *Order) FlagOverdue(now time.Time, limit time.Duration) (bool, error) {
	if err := o.Validate(); err != nil {
		return false, err
	}
	if o.status != OutForDelivery {
		return false, errs.NewInvalidTransitionErrorWithCause(o.status.String(), "flagOverdue",
			fmt.Errorf("order is not out for delivery"))
	}
	since, _ := o.EnteredStatusAt(OutForDelivery)
	if o.overdueAt != nil || now.Sub(since) < limit {
		return false, nil
	}

	o.overdueAt = &now
	o.updatedAt = now
	o.version++
	o.raise(DeliveryOverdue{
		OrderID:             o.id,
		ShipperID:           cloneUUID(o.shipperID),
		OutForDeliverySince: since,
		Limit:               limit,
		At:                  now,
	})
	return true, nil
}

// DomainEvents returns events raised since the aggregate was loaded.
func (o *Order) DomainEvents() []DomainEvent {
	return slices.Clone(o.domainEvents)
}

// ClearDomainEvents drops recorded events once they have been published.
func (o *Order) ClearDomainEvents() {
	o.domainEvents = nil
}

func (o *Order) raise(e DomainEvent) {
	o.domainEvents = append(o.domainEvents, e)
}

func cloneUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
