package publisher

import (
	"context"
	"log/slog"

	"fooddelivery/internal/core/domain/model/order"
)

// LogPublisher writes events to the structured log. It is used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "event_log")}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...order.DomainEvent) error {
	for _, event := range events {
		env, err := NewEnvelope(event)
		if err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "domain event",
			"event", env.Type,
			"order_id", env.OrderID,
			"occurred_at", env.OccurredAt,
			"payload", string(env.Payload),
		)
	}
	return nil
}
