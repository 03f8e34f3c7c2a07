package events

import (
	"context"
	"time"
)

const (
	TypeTabularProcessed = "tabular.processed"
	TypeGeneticUploaded  = "genetic.uploaded"
)

// Event is a summary of a completed ingestion step.
type Event struct {
	Type       string    `json:"type"`
	Owner      string    `json:"owner"`
	ResourceID uint      `json:"resource_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
