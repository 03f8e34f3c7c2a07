package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	config "github.com/mwantia/agrilink/internal/config/server"
	"github.com/mwantia/agrilink/pkg/log"
	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	writer := &recordingWriter{}
	publisher := &KafkaPublisher{writer: writer, topic: "agri-data", log: log.NewWriterLogger("test", "error", &bytes.Buffer{})}

	err := publisher.Publish(context.Background(), Event{
		Type:       TypeTabularProcessed,
		Owner:      "alice",
		ResourceID: 7,
		Payload:    map[string]int{"created": 3},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages = %d", len(writer.messages))
	}

	msg := writer.messages[0]
	if string(msg.Key) != "alice/7" {
		t.Errorf("key = %q", msg.Key)
	}
	var decoded Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeTabularProcessed || decoded.OccurredAt.IsZero() {
		t.Errorf("event = %+v", decoded)
	}

	if err := publisher.Close(); err != nil || !writer.closed {
		t.Fatalf("Close = %v", err)
	}
}

func TestKafkaPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("broker down")
	publisher := &KafkaPublisher{writer: &recordingWriter{err: boom}, topic: "t", log: log.NewWriterLogger("test", "error", &bytes.Buffer{})}

	if err := publisher.Publish(context.Background(), Event{Type: TypeGeneticUploaded}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped broker error", err)
	}
}

func TestNewSelectsNoopWhenDisabled(t *testing.T) {
	logger := log.NewWriterLogger("test", "error", &bytes.Buffer{})
	publisher := New(config.KafkaServerConfig{Enabled: false}, logger)
	if _, ok := publisher.(*NoopPublisher); !ok {
		t.Fatalf("publisher = %T, want *NoopPublisher", publisher)
	}
	if err := publisher.Publish(context.Background(), Event{Type: TypeTabularProcessed}); err != nil {
		t.Fatalf("noop Publish: %v", err)
	}
}
