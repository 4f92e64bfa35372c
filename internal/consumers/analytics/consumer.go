package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	"github.com/mealbridge/mealbridge-backend/pkg/logger"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox"
	"github.com/mealbridge/mealbridge-backend/pkg/outbox/payloads"
)

const analyticsConsumerName = "analytics"

type statsWriter interface {
	IncrementListingClaimCount(ctx context.Context, listingID uuid.UUID) error
	RecordClaimCreated(ctx context.Context, receiverID uuid.UUID) error
	RecordClaimCompleted(ctx context.Context, receiverID uuid.UUID, delivered decimal.Decimal, unit enums.QuantityUnit) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer keeps listing and receiver counters in step with published
// lifecycle events. Counters are best effort; a consumer failure never rolls
// back the transition that produced the event.
type Consumer struct {
	stats       statsWriter
	manager     idempotencyChecker
	logg        *logger.Logger
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a new analytics consumer.
func NewConsumer(stats statsWriter, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if stats == nil {
		return nil, fmt.Errorf("stats repository required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		stats:   stats,
		manager: manager,
		logg:    logg,
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventClaimCreated:   {},
			enums.EventClaimCompleted: {},
		},
	}, nil
}

// Process applies the counter updates for a supported event exactly once.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by analytics consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	if err := c.apply(ctx, eventType, envelope.Data); err != nil {
		c.logg.Error(logCtx, "failed to apply analytics event", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "analytics counters updated")
	return nil
}

func (c *Consumer) apply(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) error {
	switch eventType {
	case enums.EventClaimCreated:
		var payload payloads.ClaimCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("decode claim_created payload: %w", err)
		}
		if err := c.stats.IncrementListingClaimCount(ctx, payload.ListingID); err != nil {
			return fmt.Errorf("increment listing claim count: %w", err)
		}
		if err := c.stats.RecordClaimCreated(ctx, payload.ReceiverID); err != nil {
			return fmt.Errorf("record claim created: %w", err)
		}
		return nil
	case enums.EventClaimCompleted:
		var payload payloads.ClaimCompletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("decode claim_completed payload: %w", err)
		}
		if err := c.stats.RecordClaimCompleted(ctx, payload.ReceiverID, payload.DeliveredQuantity, payload.Unit); err != nil {
			return fmt.Errorf("record claim completed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported event type %s", eventType)
	}
}
