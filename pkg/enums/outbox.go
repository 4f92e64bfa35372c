package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateListing OutboxAggregateType = "listing"
	AggregateClaim   OutboxAggregateType = "claim"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateListing,
	AggregateClaim,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventListingCreated   OutboxEventType = "listing_created"
	EventListingCancelled OutboxEventType = "listing_cancelled"
	EventListingExpired   OutboxEventType = "listing_expired"
	EventListingCompleted OutboxEventType = "listing_completed"
	EventClaimCreated     OutboxEventType = "claim_created"
	EventClaimApproved    OutboxEventType = "claim_approved"
	EventClaimConfirmed   OutboxEventType = "claim_confirmed"
	EventClaimCompleted   OutboxEventType = "claim_completed"
	EventClaimRejected    OutboxEventType = "claim_rejected"
	EventClaimCancelled   OutboxEventType = "claim_cancelled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventListingCreated,
	EventListingCancelled,
	EventListingExpired,
	EventListingCompleted,
	EventClaimCreated,
	EventClaimApproved,
	EventClaimConfirmed,
	EventClaimCompleted,
	EventClaimRejected,
	EventClaimCancelled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
