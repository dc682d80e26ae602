package codec_test

import (
	"strings"
	"testing"

	"github.com/attestprotocol/attest/pkg/codec"
)

func TestStringToSlot_roundTrip(t *testing.T) {
	for _, s := range []string{
		"",
		"a",
		"hello world",
		strings.Repeat("x", 32),
	} {
		slot := codec.StringToSlot(s)
		if got := codec.SlotToString(slot); got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestStringToSlot_truncatesAt32(t *testing.T) {
	long := strings.Repeat("a", 40)
	slot := codec.StringToSlot(long)
	if got := codec.SlotToString(slot); got != long[:32] {
		t.Errorf("expected truncation to 32 bytes, got %q", got)
	}
}

func TestSlotsOf_preservesOrderAndDuplicates(t *testing.T) {
	in := []string{"b", "a", "b"}
	slots := codec.SlotsOf(in)
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	for i, s := range in {
		if got := codec.SlotToString(slots[i]); got != s {
			t.Errorf("slot %d: got %q, want %q", i, got, s)
		}
	}
}

func TestParseAddress_roundTrip(t *testing.T) {
	in := "0x1234567890abcdef1234567890abcdef12345678"
	addr, err := codec.ParseAddress(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := addr.Hex(); got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestParseAddress_rejectsBadInput(t *testing.T) {
	for _, in := range []string{
		"",
		"0x1234",
		"0xzzzz567890abcdef1234567890abcdef12345678",
		"1234567890abcdef1234567890abcdef123456789999",
	} {
		if _, err := codec.ParseAddress(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestAddress_isZero(t *testing.T) {
	var zero codec.Address
	if !zero.IsZero() {
		t.Error("zero address should report IsZero")
	}
	addr, _ := codec.ParseAddress("0x0000000000000000000000000000000000000001")
	if addr.IsZero() {
		t.Error("non-zero address should not report IsZero")
	}
}
