package listings

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
	"github.com/mealbridge/mealbridge-backend/pkg/pagination"
)

// ListCursor is the keyset boundary for listing pages. It carries the full
// sort key — priority rank, safe_until, created_at, id — so a page boundary
// always matches the query's ordering.
type ListCursor struct {
	Priority  enums.ListingPriority
	SafeUntil time.Time
	CreatedAt time.Time
	ID        uuid.UUID
}

func encodeListCursor(cursor ListCursor) string {
	return pagination.EncodeKey(
		string(cursor.Priority),
		cursor.SafeUntil.UTC().Format(time.RFC3339Nano),
		cursor.CreatedAt.UTC().Format(time.RFC3339Nano),
		cursor.ID.String(),
	)
}

func parseListCursor(value string) (*ListCursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts, err := pagination.DecodeKey(value, 4)
	if err != nil {
		return nil, err
	}
	priority, err := enums.ParseListingPriority(parts[0])
	if err != nil {
		return nil, err
	}
	safeUntil, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[2])
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(parts[3])
	if err != nil {
		return nil, err
	}
	return &ListCursor{
		Priority:  priority,
		SafeUntil: safeUntil,
		CreatedAt: createdAt,
		ID:        id,
	}, nil
}
