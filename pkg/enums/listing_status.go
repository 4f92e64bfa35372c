package enums

import "fmt"

// ListingStatus tracks the lifecycle of a surplus-food listing.
type ListingStatus string

const (
	ListingStatusAvailable        ListingStatus = "available"
	ListingStatusPartiallyClaimed ListingStatus = "partially_claimed"
	ListingStatusFullyClaimed     ListingStatus = "fully_claimed"
	ListingStatusCompleted        ListingStatus = "completed"
	ListingStatusExpired          ListingStatus = "expired"
	ListingStatusCancelled        ListingStatus = "cancelled"
)

var validListingStatuses = []ListingStatus{
	ListingStatusAvailable,
	ListingStatusPartiallyClaimed,
	ListingStatusFullyClaimed,
	ListingStatusCompleted,
	ListingStatusExpired,
	ListingStatusCancelled,
}

// String implements fmt.Stringer.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ListingStatus.
func (s ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further claims may be created or approved.
func (s ListingStatus) IsTerminal() bool {
	switch s {
	case ListingStatusCompleted, ListingStatusExpired, ListingStatusCancelled:
		return true
	}
	return false
}

// IsSweepable reports whether the expiry sweeper may transition this status.
func (s ListingStatus) IsSweepable() bool {
	return s == ListingStatusAvailable || s == ListingStatusPartiallyClaimed
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
