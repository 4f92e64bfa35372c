package enums

import "fmt"

// ListingPriority orders listings by how urgently the food must move.
type ListingPriority string

const (
	PriorityUrgent ListingPriority = "urgent"
	PriorityHigh   ListingPriority = "high"
	PriorityMedium ListingPriority = "medium"
)

var validListingPriorities = []ListingPriority{
	PriorityUrgent,
	PriorityHigh,
	PriorityMedium,
}

// String implements fmt.Stringer.
func (p ListingPriority) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ListingPriority.
func (p ListingPriority) IsValid() bool {
	for _, candidate := range validListingPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// Rank returns the sort weight; lower sorts first.
func (p ListingPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// ParseListingPriority converts raw input into a ListingPriority.
func ParseListingPriority(value string) (ListingPriority, error) {
	for _, candidate := range validListingPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing priority %q", value)
}
