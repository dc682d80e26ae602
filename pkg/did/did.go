// Package did translates between signer identities and ledger account
// addresses.
//
// Identity format: did:attest:0x{40 hex chars}
//
// Example:
//
//	did:attest:0x52908400098527886e0f7030069857d2e4169ee7
//
// The method-specific identifier is the signer's ledger account address,
// so translation in either direction is a fixed-prefix operation. For
// compatibility, functions that accept an identity also accept the bare
// 0x-prefixed address form.
package did

import (
	"fmt"
	"strings"

	"github.com/attestprotocol/attest/pkg/codec"
)

// Prefix is the DID scheme and method for attest identities.
const Prefix = "did:attest:"

// Format returns the identity form of a ledger account address.
func Format(addr codec.Address) string {
	return Prefix + addr.Hex()
}

// ToAddress translates an identity to its ledger account address.
// Both the did:attest form and a bare 0x address are accepted.
func ToAddress(identity string) (codec.Address, error) {
	s := strings.TrimSpace(identity)
	s = strings.TrimPrefix(s, Prefix)
	addr, err := codec.ParseAddress(s)
	if err != nil {
		return codec.Address{}, fmt.Errorf("identity %q: %w", identity, err)
	}
	return addr, nil
}

// FromHex translates a 0x-prefixed account address string to its
// identity form.
func FromHex(hexAddr string) (string, error) {
	addr, err := codec.ParseAddress(hexAddr)
	if err != nil {
		return "", err
	}
	return Format(addr), nil
}

// IsValid reports whether identity parses as a did:attest identity or a
// bare account address.
func IsValid(identity string) bool {
	_, err := ToAddress(identity)
	return err == nil
}
