package claims

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	minPickupCodeDigits = 4
	maxPickupCodeDigits = 6
)

// generatePickupCode produces a zero-padded numeric code from crypto/rand.
// Digit count is clamped to the supported 4-6 range.
func generatePickupCode(digits int) (string, error) {
	if digits < minPickupCodeDigits {
		digits = minPickupCodeDigits
	}
	if digits > maxPickupCodeDigits {
		digits = maxPickupCodeDigits
	}

	limit := int64(1)
	for i := 0; i < digits; i++ {
		limit *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		return "", fmt.Errorf("generating pickup code: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// pickupCodeMatches compares codes in constant time.
func pickupCodeMatches(expected, candidate string) bool {
	if len(expected) != len(candidate) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
