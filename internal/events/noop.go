package events

import (
	"context"

	config "github.com/mwantia/agrilink/internal/config/server"
	"github.com/mwantia/agrilink/pkg/log"
)

// NoopPublisher drops events when no broker is configured.
type NoopPublisher struct {
	log log.LoggerService
}

func NewNoopPublisher(logger log.LoggerService) *NoopPublisher {
	return &NoopPublisher{log: logger}
}

func (p *NoopPublisher) Publish(_ context.Context, event Event) error {
	p.log.Debug("Event publishing disabled, skipping %s for resource %d", event.Type, event.ResourceID)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// New returns the Kafka publisher when enabled and a no-op publisher otherwise.
func New(cfg config.KafkaServerConfig, logger log.LoggerService) Publisher {
	if !cfg.Enabled {
		return NewNoopPublisher(logger)
	}
	logger.Info("Publishing events to topic '%s' on %v", cfg.Topic, cfg.Brokers)
	return NewKafkaPublisher(cfg, logger)
}
