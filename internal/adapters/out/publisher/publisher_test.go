package publisher_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"fooddelivery/internal/adapters/out/publisher"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type unknownEvent struct{}

func (unknownEvent) EventName() string        { return "order.unknown" }
func (unknownEvent) AggregateID() kernel.UUID { return kernel.NewUUID() }
func (unknownEvent) OccurredAt() time.Time    { return at }

func statusChanged(orderID kernel.UUID, shipperID *kernel.UUID) order.StatusChanged {
	return order.StatusChanged{
		OrderID:   orderID,
		From:      order.Ready,
		To:        order.AssignedToShipper,
		Event:     order.EventShipperAssigned,
		ShipperID: shipperID,
		Note:      "Shipper assigned to the order",
		At:        at,
	}
}

func TestNewEnvelope(t *testing.T) {
	t.Run("status change carries transition and shipper", func(t *testing.T) {
		orderID, shipperID := kernel.NewUUID(), kernel.NewUUID()

		env, err := publisher.NewEnvelope(statusChanged(orderID, &shipperID))

		require.NoError(t, err)
		assert.Equal(t, "order.status_changed", env.Type)
		assert.Equal(t, orderID.String(), env.OrderID)
		assert.True(t, at.Equal(env.OccurredAt))
		assert.NotEmpty(t, env.ID)

		var payload map[string]any
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, "ready", payload["from"])
		assert.Equal(t, "assigned_to_shipper", payload["to"])
		assert.Equal(t, "shipperAssigned", payload["event"])
		assert.Equal(t, shipperID.String(), payload["shipperId"])
	})

	t.Run("overdue reports the limit in seconds", func(t *testing.T) {
		env, err := publisher.NewEnvelope(order.DeliveryOverdue{
			OrderID:             kernel.NewUUID(),
			OutForDeliverySince: at.Add(-time.Hour),
			Limit:               45 * time.Minute,
			At:                  at,
		})

		require.NoError(t, err)
		assert.Equal(t, "order.delivery_overdue", env.Type)
		assert.JSONEq(t, `{"outForDeliverySince":"2026-03-14T11:00:00Z","limitSeconds":2700}`, string(env.Payload))
	})

	t.Run("unknown events are rejected", func(t *testing.T) {
		_, err := publisher.NewEnvelope(unknownEvent{})
		assert.Error(t, err)
	})
}

func TestKafkaPublisher_Publish(t *testing.T) {
	t.Run("sends one message per event", func(t *testing.T) {
		// Given
		producer := mocks.NewSyncProducer(t, nil)
		orderID := kernel.NewUUID()
		checkOrder := func(val []byte) error {
			var env publisher.Envelope
			if err := json.Unmarshal(val, &env); err != nil {
				return err
			}
			if env.OrderID != orderID.String() {
				return errors.New("unexpected order id " + env.OrderID)
			}
			return nil
		}
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checkOrder)
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(checkOrder)
		p := publisher.NewKafkaPublisher(producer, "order.changed", slog.New(slog.DiscardHandler))

		// When
		err := p.Publish(t.Context(),
			statusChanged(orderID, nil),
			order.DeliveryOverdue{OrderID: orderID, OutForDeliverySince: at, Limit: time.Hour, At: at},
		)

		// Then
		require.NoError(t, err)
		require.NoError(t, p.Close())
	})

	t.Run("returns the broker error", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		p := publisher.NewKafkaPublisher(producer, "order.changed", slog.New(slog.DiscardHandler))

		err := p.Publish(t.Context(), statusChanged(kernel.NewUUID(), nil), statusChanged(kernel.NewUUID(), nil))

		require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		require.NoError(t, p.Close())
	})

	t.Run("does not send after the context is done", func(t *testing.T) {
		producer := mocks.NewSyncProducer(t, nil)
		p := publisher.NewKafkaPublisher(producer, "order.changed", slog.New(slog.DiscardHandler))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := p.Publish(ctx, statusChanged(kernel.NewUUID(), nil))

		require.ErrorIs(t, err, context.Canceled)
		require.NoError(t, p.Close())
	})
}

func TestLogPublisher_Publish(t *testing.T) {
	var buf bytes.Buffer
	p := publisher.NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))
	orderID := kernel.NewUUID()

	require.NoError(t, p.Publish(t.Context(), statusChanged(orderID, nil)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "domain event", line["msg"])
	assert.Equal(t, "order.status_changed", line["event"])
	assert.Equal(t, orderID.String(), line["order_id"])
	assert.Equal(t, "event_log", line["component"])
}
