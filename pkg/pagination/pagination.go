package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 100
)

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer returns the normalization result plus one to detect the next page.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeKey joins keyset segments into an opaque cursor string. Segments must
// not contain the separator; callers encode timestamps and ids as text first.
func EncodeKey(segments ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(segments, "|")))
}

// DecodeKey reverses EncodeKey, enforcing the expected segment count.
func DecodeKey(value string, want int) ([]string, error) {
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != want {
		return nil, fmt.Errorf("invalid cursor format: expected %d segments got %d", want, len(parts))
	}
	return parts, nil
}
