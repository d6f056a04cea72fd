package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/order"

	"github.com/IBM/sarama"
)

const eventTypeHeader = "event-type"

// KafkaPublisher sends one message per event, keyed by order id so that events of an
// order stay in one partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// NewKafkaProducer dials the comma separated broker list with acks from all replicas.
func NewKafkaProducer(brokers string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Net.DialTimeout = 10 * time.Second

	brokerList := strings.Split(brokers, ",")
	producer, err := sarama.NewSyncProducer(brokerList, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.With("component", "kafka_publisher", "topic", topic),
	}
}

// Publish stops at the first failed send. Events already sent stay sent.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...order.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		env, err := NewEnvelope(event)
		if err != nil {
			return err
		}
		value, err := json.Marshal(env)
		if err != nil {
			return err
		}

		partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(env.OrderID),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte(eventTypeHeader), Value: []byte(env.Type)},
			},
		})
		if err != nil {
			return fmt.Errorf("send %s for order %s: %w", env.Type, env.OrderID, err)
		}
		p.logger.Debug("event published",
			"event", env.Type, "order_id", env.OrderID, "partition", partition, "offset", offset)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	return p.producer.Close()
}
