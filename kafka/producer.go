package kafka

import (
	"context"
	"encoding/json"
	"log"

	"pos-order-service/models"

	"github.com/segmentio/kafka-go"
)

// ProducerAPI lets services publish without binding to a concrete
// writer (tests inject a mock).
type ProducerAPI interface {
	PublishOrderEvent(evt models.OrderEvent) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[OrderSync][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &Producer{writer: w, topic: topic}
}

// PublishOrderEvent publishes a lifecycle notification keyed by order
// ID so per-order events stay in partition order.
func (p *Producer) PublishOrderEvent(evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID.String()),
		Value: data,
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		log.Printf("[OrderSync][KafkaProducer] failed to publish %s order=%s err=%v", evt.EventType, evt.OrderID, err)
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	log.Printf("[OrderSync][KafkaProducer] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
