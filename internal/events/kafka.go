package events

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	typeStatusChanged  = "order.status_changed"
	typeDriverAssigned = "order.driver_assigned"
)

// envelope wraps every published record with a type discriminator so
// consumers on the shared topic can route without sniffing payloads.
type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// KafkaPublisher publishes workflow events to a single Kafka topic,
// keyed by order id so per-order ordering is preserved within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		log: log,
	}
}

func (p *KafkaPublisher) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	return p.publish(ctx, ev.OrderID, envelope{Type: typeStatusChanged, Payload: ev})
}

func (p *KafkaPublisher) PublishDriverAssigned(ctx context.Context, ev DriverAssigned) error {
	return p.publish(ctx, ev.OrderID, envelope{Type: typeDriverAssigned, Payload: ev})
}

func (p *KafkaPublisher) publish(ctx context.Context, orderID int64, env envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("order-%d", orderID)),
		Value: data,
	})
	if err != nil {
		p.log.Warn("publish workflow event failed",
			zap.String("type", env.Type),
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
	return err
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
