package kafka

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/weather-matrix/internal/config"
	"github.com/couchcryptid/weather-matrix/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// FrameWriter mirrors rendered frames to a Kafka topic.
// It implements render.Display.
type FrameWriter struct {
	writer messageWriter
	key    []byte
	logger *slog.Logger

	mu   sync.Mutex
	last []byte
}

// NewFrameWriter creates a Kafka producer for the configured frame topic.
// Messages are keyed by the configured location name.
func NewFrameWriter(cfg *config.Config, logger *slog.Logger) *FrameWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaFrameTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newFrameWriter(w, locationKey(cfg), logger)
}

func newFrameWriter(w messageWriter, key string, logger *slog.Logger) *FrameWriter {
	return &FrameWriter{writer: w, key: []byte(key), logger: logger}
}

func locationKey(cfg *config.Config) string {
	if cfg.LocationName != "" {
		return cfg.LocationName
	}
	return fmt.Sprintf("%.4f,%.4f", cfg.Query.Lat, cfg.Query.Lon)
}

// Show publishes the frame when its content differs from the last published
// frame. The render timestamp alone does not count as a change.
func (w *FrameWriter) Show(ctx context.Context, frame domain.Frame) error {
	content, err := frameContent(frame)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if bytes.Equal(content, w.last) {
		return nil
	}

	msg, err := serializeToMessage(frame, w.key)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish frame: %w", err)
	}
	w.last = content
	w.logger.Debug("frame published", "mode", frame.Mode.String())
	return nil
}

func (w *FrameWriter) Close() error {
	return w.writer.Close()
}

func frameContent(frame domain.Frame) ([]byte, error) {
	frame.RenderedAt = time.Time{}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("serialize frame: %w", err)
	}
	return data, nil
}

// serializeToMessage marshals a Frame into a Kafka message.
func serializeToMessage(frame domain.Frame, key []byte) (kafkago.Message, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize frame: %w", err)
	}
	return kafkago.Message{
		Key:   key,
		Value: data,
		Headers: []kafkago.Header{
			{Key: "frame_id", Value: []byte(uuid.NewString())},
			{Key: "mode", Value: []byte(frame.Mode.String())},
			{Key: "rendered_at", Value: []byte(frame.RenderedAt.Format(time.RFC3339))},
		},
	}, nil
}
