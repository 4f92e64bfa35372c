package enums

import "fmt"

// ClaimStatus tracks the lifecycle of a receiver's claim against a listing.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusConfirmed ClaimStatus = "confirmed"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

var validClaimStatuses = []ClaimStatus{
	ClaimStatusPending,
	ClaimStatusApproved,
	ClaimStatusConfirmed,
	ClaimStatusCompleted,
	ClaimStatusRejected,
	ClaimStatusCancelled,
}

// String implements fmt.Stringer.
func (s ClaimStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ClaimStatus.
func (s ClaimStatus) IsValid() bool {
	for _, candidate := range validClaimStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the claim still occupies the one-active-claim slot
// for its (listing, receiver) pair.
func (s ClaimStatus) IsActive() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusConfirmed:
		return true
	}
	return false
}

// IsTerminal reports whether the claim can no longer change status.
func (s ClaimStatus) IsTerminal() bool {
	switch s {
	case ClaimStatusCompleted, ClaimStatusRejected, ClaimStatusCancelled:
		return true
	}
	return false
}

// CountsTowardLedger reports whether the claim's quantity reduces the
// listing's remaining quantity.
func (s ClaimStatus) CountsTowardLedger() bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusConfirmed, ClaimStatusCompleted:
		return true
	}
	return false
}

// BlocksListingDeletion reports whether a claim in this status protects its
// listing from deletion.
func (s ClaimStatus) BlocksListingDeletion() bool {
	switch s {
	case ClaimStatusApproved, ClaimStatusConfirmed, ClaimStatusCompleted:
		return true
	}
	return false
}

// ParseClaimStatus converts raw input into a ClaimStatus.
func ParseClaimStatus(value string) (ClaimStatus, error) {
	for _, candidate := range validClaimStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim status %q", value)
}
