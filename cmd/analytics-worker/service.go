package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox"
)

type eventProcessor interface {
	Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error
}

// Service pulls lifecycle events off the subscription and feeds the analytics
// consumer. Malformed messages are acked and dropped; handler failures nack so
// Pub/Sub redelivers.
type Service struct {
	subscription *gcppubsub.Subscriber
	processor    eventProcessor
	logg         *logger.Logger
}

func NewService(subscription *gcppubsub.Subscriber, processor eventProcessor, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("event subscription is required")
	}
	if processor == nil {
		return nil, errors.New("event processor is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		processor:    processor,
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := s.logg.WithFields(ctx, fields)

	eventType, envelope, err := decodeMessage(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "dropping undecodable event message")
		return processResult{}
	}

	fields["event_id"] = envelope.EventID
	fields["event_type"] = eventType
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = s.logg.WithFields(ctx, fields)

	if err := s.processor.Process(logCtx, eventType, envelope); err != nil {
		s.logg.Error(logCtx, "event processing failed", err)
		return processResult{nack: true}
	}
	return processResult{}
}

func decodeMessage(msg *gcppubsub.Message) (enums.OutboxEventType, outbox.PayloadEnvelope, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return "", outbox.PayloadEnvelope{}, fmt.Errorf("decode payload envelope: %w", err)
	}
	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return "", outbox.PayloadEnvelope{}, fmt.Errorf("event_type attribute: %w", err)
	}
	return eventType, envelope, nil
}
