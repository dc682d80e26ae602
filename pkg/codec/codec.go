// Package codec converts between application-level values and the
// fixed-width encodings the evidence contract stores on the ledger.
//
// The contract works in three unit sizes:
//
//	Slot    — a 32-byte storage word holding a string fragment or a
//	          signature component
//	Address — a 20-byte ledger account
//	uint8   — a single-byte value such as an ECDSA recovery id
//
// Strings longer than one slot are split by the caller into an ordered
// sequence of slots; the codec never reorders or deduplicates.
package codec

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexPrefix is prepended to hex-encoded ledger values (hashes, addresses).
const HexPrefix = "0x"

// SlotSize is the width of one ledger storage word.
const SlotSize = 32

// AddressSize is the width of a ledger account address.
const AddressSize = 20

// Slot is one 32-byte ledger storage word.
type Slot [SlotSize]byte

// Address is a 20-byte ledger account address.
type Address [AddressSize]byte

// StringToSlot encodes s into a slot, left-justified and zero-padded.
// Input longer than 32 bytes is truncated to the first 32 bytes.
func StringToSlot(s string) Slot {
	var slot Slot
	copy(slot[:], s)
	return slot
}

// SlotToString decodes a slot back into its string form, dropping the
// zero-byte padding.
func SlotToString(slot Slot) string {
	end := len(slot)
	for end > 0 && slot[end-1] == 0 {
		end--
	}
	return string(slot[:end])
}

// SlotsOf encodes each string into its own slot, preserving order.
// Duplicates are passed through as-is.
func SlotsOf(values []string) []Slot {
	slots := make([]Slot, 0, len(values))
	for _, v := range values {
		slots = append(slots, StringToSlot(v))
	}
	return slots
}

// ParseAddress decodes a 0x-prefixed 40-character hex account address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	hexPart := strings.TrimPrefix(strings.ToLower(s), HexPrefix)
	if len(hexPart) != AddressSize*2 {
		return addr, fmt.Errorf("address %q: want %d hex chars, got %d", s, AddressSize*2, len(hexPart))
	}
	b, err := hex.DecodeString(hexPart)
	if err != nil {
		return addr, fmt.Errorf("address %q: %w", s, err)
	}
	copy(addr[:], b)
	return addr, nil
}

// Hex returns the 0x-prefixed lowercase hex form of the address.
func (a Address) Hex() string {
	return HexPrefix + hex.EncodeToString(a[:])
}

// IsZero reports whether the address is the all-zero placeholder.
func (a Address) IsZero() bool {
	return a == Address{}
}
