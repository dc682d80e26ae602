// Package keys wraps secp256k1 private keys and derives the ledger
// account identity behind them.
//
// A ledger account address is the last 20 bytes of the Keccak-256 digest
// of the uncompressed public key (without its format byte). The address
// doubles as the default signer identity when an evidence record is
// created without an explicit signer list.
package keys

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/attestprotocol/attest/pkg/codec"
	"github.com/attestprotocol/attest/pkg/sigserial"
)

// PrivateKey is a secp256k1 private key used to submit ledger
// transactions and to sign evidence content.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// Generate creates a fresh random private key.
func Generate() (*PrivateKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: k}, nil
}

// FromDecimal parses a private key from its big-endian decimal string
// form, the representation used on the wire by callers of the engine.
func FromDecimal(s string) (*PrivateKey, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("private key: not a positive decimal integer")
	}
	var buf [32]byte
	if n.BitLen() > 256 {
		return nil, fmt.Errorf("private key: exceeds 256 bits")
	}
	n.FillBytes(buf[:])
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(buf[:])}, nil
}

// FromHex parses a private key from a 0x-prefixed or bare hex string.
func FromHex(s string) (*PrivateKey, error) {
	hexPart := strings.TrimPrefix(strings.TrimSpace(s), codec.HexPrefix)
	n, ok := new(big.Int).SetString(hexPart, 16)
	if !ok || n.Sign() <= 0 {
		return nil, fmt.Errorf("private key: not a positive hex integer")
	}
	var buf [32]byte
	if n.BitLen() > 256 {
		return nil, fmt.Errorf("private key: exceeds 256 bits")
	}
	n.FillBytes(buf[:])
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(buf[:])}, nil
}

// Decimal returns the key's decimal string form.
func (p *PrivateKey) Decimal() string {
	return new(big.Int).SetBytes(p.key.Serialize()).String()
}

// Hex returns the key as 64 lowercase hex characters, no prefix.
func (p *PrivateKey) Hex() string {
	return fmt.Sprintf("%x", p.key.Serialize())
}

// Address derives the ledger account address controlled by this key.
func (p *PrivateKey) Address() codec.Address {
	var addr codec.Address
	pub := p.key.PubKey().SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(pub[1:]) // drop the 0x04 format byte
	digest := h.Sum(nil)
	copy(addr[:], digest[len(digest)-codec.AddressSize:])
	return addr
}

// SignContent produces a recoverable ECDSA signature over the Keccak-256
// digest of content. V is 27 or 28.
func (p *PrivateKey) SignContent(content []byte) sigserial.SignatureData {
	h := sha3.NewLegacyKeccak256()
	h.Write(content)
	digest := h.Sum(nil)

	// SignCompact returns 65 bytes: recovery code, then R, then S.
	compact := secpecdsa.SignCompact(p.key, digest, false)

	var sig sigserial.SignatureData
	sig.V = compact[0]
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	return sig
}
