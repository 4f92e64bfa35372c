package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("expected default %d got %d", DefaultLimit, got)
	}
	if got := NormalizeLimit(-3); got != DefaultLimit {
		t.Fatalf("expected default for negative got %d", got)
	}
	if got := NormalizeLimit(500); got != MaxLimit {
		t.Fatalf("expected cap %d got %d", MaxLimit, got)
	}
	if got := NormalizeLimit(10); got != 10 {
		t.Fatalf("expected passthrough 10 got %d", got)
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffer 11 got %d", got)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	encoded := EncodeKey("urgent", "2026-03-14T12:00:00Z", "id-1")
	parts, err := DecodeKey(encoded, 3)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if parts[0] != "urgent" || parts[1] != "2026-03-14T12:00:00Z" || parts[2] != "id-1" {
		t.Fatalf("unexpected segments %v", parts)
	}
}

func TestDecodeKeyRejectsGarbage(t *testing.T) {
	if _, err := DecodeKey("not base64!!", 2); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := DecodeKey(EncodeKey("a", "b"), 3); err == nil {
		t.Fatal("expected error for wrong segment count")
	}
}
