// AngelaMos | 2026
// producer.go

// Package events mirrors delivered marketplace notifications onto Kafka for
// downstream consumers such as analytics or a mail worker.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/carterperez-dev/balaoui/internal/config"
)

const flushTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close()
}

// New returns a Kafka producer when enabled and a no-op otherwise.
func New(cfg config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewKafkaPublisher(cfg)
}

type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"client.id":         cfg.ClientID,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &KafkaPublisher{
		producer: producer,
		topic:    cfg.Topic,
		done:     make(chan struct{}),
	}
	go p.reportDeliveries()

	slog.Info("kafka producer ready", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return p, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
		Timestamp:      time.Now(),
	}, nil)
	if err != nil {
		return fmt.Errorf("produce %s: %w", key, err)
	}
	return nil
}

// Ping asks the cluster for the topic's metadata.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if _, err := p.producer.GetMetadata(&p.topic, false, int(timeout/time.Millisecond)); err != nil {
		return fmt.Errorf("kafka metadata: %w", err)
	}
	return nil
}

// reportDeliveries drains the producer's event channel; without it librdkafka
// blocks once the queue fills.
func (p *KafkaPublisher) reportDeliveries() {
	defer close(p.done)

	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				slog.Warn("kafka delivery failed",
					"key", string(e.Key),
					"error", e.TopicPartition.Error,
				)
			}
		case kafka.Error:
			slog.Error("kafka error", "error", e, "fatal", e.IsFatal())
		}
	}
}

func (p *KafkaPublisher) Close() {
	if remaining := p.producer.Flush(int(flushTimeout / time.Millisecond)); remaining > 0 {
		slog.Warn("kafka producer closed with undelivered messages", "remaining", remaining)
	}
	p.producer.Close()
	<-p.done
}

type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Close() {}
