package order

import (
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
)

// DomainEvent is something that happened to an order and is published after commit.
type DomainEvent interface {
	EventName() string
	AggregateID() kernel.UUID
	OccurredAt() time.Time
}

// StatusChanged is raised by every applied transition.
type StatusChanged struct {
	OrderID   kernel.UUID
	From      Status
	To        Status
	Event     Event
	ShipperID *kernel.UUID
	Note      string
	At        time.Time
}

func (e StatusChanged) EventName() string        { return "order.status_changed" }
func (e StatusChanged) AggregateID() kernel.UUID { return e.OrderID }
func (e StatusChanged) OccurredAt() time.Time    { return e.At }

// DeliveryOverdue is raised when an order stays out for delivery past the configured limit.
type DeliveryOverdue struct {
	OrderID             kernel.UUID
	ShipperID           *kernel.UUID
	OutForDeliverySince time.Time
	Limit               time.Duration
	At                  time.Time
}

func (e DeliveryOverdue) EventName() string        { return "order.delivery_overdue" }
func (e DeliveryOverdue) AggregateID() kernel.UUID { return e.OrderID }
func (e DeliveryOverdue) OccurredAt() time.Time    { return e.At }
