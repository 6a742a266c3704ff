package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/config"
	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ScoreEventPublisher publishes score events to Kafka as google.protobuf.Struct messages.
type ScoreEventPublisher struct {
	writer messageWriter
	Topic  string
}

// NewScoreEventPublisher builds an async publisher; delivery errors are logged.
func NewScoreEventPublisher(cfg config.Config, logger zerolog.Logger) *ScoreEventPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopicScoreEvents,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error().Err(err).Int("messages", len(messages)).Msg("kafka score event delivery failed")
			}
		},
	}
	return &ScoreEventPublisher{writer: writer, Topic: cfg.KafkaTopicScoreEvents}
}

func (p *ScoreEventPublisher) Publish(ctx context.Context, ev domain.ScoreEvent) error {
	msg, err := EncodeScoreEvent(ev)
	if err != nil {
		return err
	}
	value, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal score event proto: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Address),
		Value: value,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// EncodeScoreEvent converts ev into its wire form.
func EncodeScoreEvent(ev domain.ScoreEvent) (*structpb.Struct, error) {
	networks := make(map[string]any, len(ev.Networks))
	for name, present := range ev.Networks {
		networks[name] = present
	}
	failures := make([]any, len(ev.Failures))
	for i, name := range ev.Failures {
		failures[i] = name
	}

	msg, err := structpb.NewStruct(map[string]any{
		"request_id":  ev.RequestID,
		"address":     ev.Address,
		"check":       string(ev.Check),
		"reduction":   string(ev.Reduction),
		"score":       ev.Score,
		"networks":    networks,
		"failures":    failures,
		"cached":      ev.Cached,
		"computed_at": ev.ComputedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("encode score event: %w", err)
	}
	return msg, nil
}

func (p *ScoreEventPublisher) Close() error {
	return p.writer.Close()
}
