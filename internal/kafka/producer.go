package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"eventhub/internal/config"
	"eventhub/internal/models"
)

// Producer streams ticket lifecycle events. Messages are keyed by
// event id so one event's bookings land on one partition in order.
type Producer struct {
	Writer   *kafka.Writer
	Topics   config.TopicConfig
	MockMode bool
}

func NewProducer(cfg config.KafkaConfig) *Producer {
	if cfg.MockMode {
		return &Producer{Topics: cfg.Topics, MockMode: true}
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.Hash{},
	}
	return &Producer{Writer: writer, Topics: cfg.Topics}
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if p.MockMode {
		fmt.Printf("MOCK KAFKA [%s] key=%s %s\n", topic, key, string(msgBytes))
		return nil
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) PublishTicketBooked(ticket models.Ticket) error {
	return p.publish(p.Topics.TicketBooked, ticket.EventID, ticket)
}

func (p *Producer) PublishTicketCancelled(ticket models.Ticket) error {
	return p.publish(p.Topics.TicketCancelled, ticket.EventID, ticket)
}

func (p *Producer) PublishTicketUsed(ticket models.Ticket) error {
	return p.publish(p.Topics.TicketUsed, ticket.EventID, ticket)
}

func (p *Producer) Close() error {
	if p.Writer != nil {
		return p.Writer.Close()
	}
	return nil
}
