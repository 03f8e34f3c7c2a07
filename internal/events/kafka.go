package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	config "github.com/mwantia/agrilink/internal/config/server"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/segmentio/kafka-go"
)

const publishTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by owner and resource.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    log.LoggerService
}

func NewKafkaPublisher(cfg config.KafkaServerConfig, logger log.LoggerService) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           publishTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: cfg.Topic, log: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := event.Owner + "/" + strconv.FormatUint(uint64(event.ResourceID), 10)
	err = p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value})
	if err != nil {
		return fmt.Errorf("failed to publish to topic '%s': %w", p.topic, err)
	}

	p.log.Debug("Published %s for %s to topic '%s'", event.Type, key, p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
