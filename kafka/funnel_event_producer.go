package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/JonasKash/sok/models"
)

type FunnelEventProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewFunnelEventProducer(brokers []string, topic string) *FunnelEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[FunnelService][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &FunnelEventProducer{writer: w, topic: topic}
}

// PublishFunnelEvent streams one event, keyed by session so a visitor's
// journey lands on one partition in order.
func (p *FunnelEventProducer) PublishFunnelEvent(ctx context.Context, event *models.FunnelEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[FunnelService] ❌ Failed to publish funnel event: %v", err)
		return err
	}
	return nil
}

func (p *FunnelEventProducer) Close() {
	_ = p.writer.Close()
	log.Println("[FunnelService] 🔌 Kafka producer closed")
}
