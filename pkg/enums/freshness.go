package enums

import "fmt"

// FreshnessLevel describes the provider-declared condition of the food at
// listing creation. It drives the food-safety window.
type FreshnessLevel string

const (
	FreshnessFreshlyCooked  FreshnessLevel = "freshly_cooked"
	FreshnessFresh          FreshnessLevel = "fresh"
	FreshnessGood           FreshnessLevel = "good"
	FreshnessNearExpiry     FreshnessLevel = "near_expiry"
	FreshnessUseImmediately FreshnessLevel = "use_immediately"
)

var validFreshnessLevels = []FreshnessLevel{
	FreshnessFreshlyCooked,
	FreshnessFresh,
	FreshnessGood,
	FreshnessNearExpiry,
	FreshnessUseImmediately,
}

// String implements fmt.Stringer.
func (f FreshnessLevel) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FreshnessLevel.
func (f FreshnessLevel) IsValid() bool {
	for _, candidate := range validFreshnessLevels {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFreshnessLevel converts raw input into a FreshnessLevel.
func ParseFreshnessLevel(value string) (FreshnessLevel, error) {
	for _, candidate := range validFreshnessLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid freshness level %q", value)
}
