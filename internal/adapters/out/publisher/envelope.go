// Package publisher delivers order domain events after commit, either to Kafka or to
// the structured log when no broker is configured.
package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// Envelope is the JSON message published for every domain event.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrderID    string          `json:"orderId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type statusChangedPayload struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Event     string  `json:"event"`
	ShipperID *string `json:"shipperId,omitempty"`
	Note      string  `json:"note,omitempty"`
}

type deliveryOverduePayload struct {
	ShipperID           *string   `json:"shipperId,omitempty"`
	OutForDeliverySince time.Time `json:"outForDeliverySince"`
	LimitSeconds        int64     `json:"limitSeconds"`
}

// NewEnvelope wraps a domain event. Unknown event types are rejected.
func NewEnvelope(event order.DomainEvent) (Envelope, error) {
	var payload any
	switch e := event.(type) {
	case order.StatusChanged:
		payload = statusChangedPayload{
			From:      e.From.String(),
			To:        e.To.String(),
			Event:     e.Event.String(),
			ShipperID: idString(e.ShipperID),
			Note:      e.Note,
		}
	case order.DeliveryOverdue:
		payload = deliveryOverduePayload{
			ShipperID:           idString(e.ShipperID),
			OutForDeliverySince: e.OutForDeliverySince.UTC(),
			LimitSeconds:        int64(e.Limit / time.Second),
		}
	default:
		return Envelope{}, fmt.Errorf("unsupported domain event %T", event)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       event.EventName(),
		OrderID:    event.AggregateID().String(),
		OccurredAt: event.OccurredAt().UTC(),
		Payload:    raw,
	}, nil
}

func idString(id *kernel.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
