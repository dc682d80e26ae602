// Package sigserial packs ECDSA signature components into the opaque
// base64 token stored in evidence records, and back.
//
// The canonical byte layout is 65 bytes: V (1 byte) followed by R and S
// (32 bytes each). The base64 form is what callers see in
// EvidenceSignInfo; the component form is what the contract stores in its
// parallel r/s/v slots.
package sigserial

import (
	"encoding/base64"
	"fmt"

	"github.com/attestprotocol/attest/pkg/codec"
)

// packedLen is the size of the canonical V||R||S layout.
const packedLen = 1 + 2*codec.SlotSize

// SignatureData holds the three components of a recoverable ECDSA
// signature over an evidence record's canonical content.
//
// A SignatureData with V == 0 is the contract's placeholder for "no
// signature in this slot" and never appears in a serialized token.
type SignatureData struct {
	V byte
	R codec.Slot
	S codec.Slot
}

// Serialize packs the components into the canonical layout and encodes it
// as standard base64 for transport and display.
func (s SignatureData) Serialize() string {
	buf := make([]byte, 0, packedLen)
	buf = append(buf, s.V)
	buf = append(buf, s.R[:]...)
	buf = append(buf, s.S[:]...)
	return base64.StdEncoding.EncodeToString(buf)
}

// Deserialize reverses Serialize exactly. The round trip is lossless for
// any valid (v, r, s) triple.
func Deserialize(token string) (SignatureData, error) {
	var sig SignatureData
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return sig, fmt.Errorf("decode signature token: %w", err)
	}
	if len(raw) != packedLen {
		return sig, fmt.Errorf("signature token: want %d bytes, got %d", packedLen, len(raw))
	}
	sig.V = raw[0]
	copy(sig.R[:], raw[1:1+codec.SlotSize])
	copy(sig.S[:], raw[1+codec.SlotSize:])
	return sig, nil
}
