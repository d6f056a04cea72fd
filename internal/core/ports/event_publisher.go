package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/order"
)

// EventPublisher delivers order domain events to other services after commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...order.DomainEvent) error
}
