package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaNotifier публикует события в kafka-топик для сервиса уведомлений
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Time:  time.Now(),
	}
	return n.writer.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier используется, когда брокеры не сконфигурированы
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	log.Printf("notify: %s", data)
	return nil
}
