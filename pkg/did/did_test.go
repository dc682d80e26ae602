package did_test

import (
	"testing"

	"github.com/attestprotocol/attest/pkg/codec"
	"github.com/attestprotocol/attest/pkg/did"
)

const hexAddr = "0x52908400098527886e0f7030069857d2e4169ee7"

func TestFormat_roundTrip(t *testing.T) {
	addr, err := codec.ParseAddress(hexAddr)
	if err != nil {
		t.Fatal(err)
	}

	identity := did.Format(addr)
	if identity != "did:attest:"+hexAddr {
		t.Fatalf("unexpected identity %q", identity)
	}

	back, err := did.ToAddress(identity)
	if err != nil {
		t.Fatal(err)
	}
	if back != addr {
		t.Error("round trip changed the address")
	}
}

func TestToAddress_acceptsBareAddress(t *testing.T) {
	addr, err := did.ToAddress(hexAddr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Hex() != hexAddr {
		t.Errorf("got %q, want %q", addr.Hex(), hexAddr)
	}
}

func TestToAddress_rejectsBadIdentities(t *testing.T) {
	for _, in := range []string{
		"",
		"did:attest:",
		"did:attest:0x1234",
		"did:other:" + hexAddr,
	} {
		if _, err := did.ToAddress(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !did.IsValid("did:attest:" + hexAddr) {
		t.Error("expected valid identity")
	}
	if did.IsValid("did:attest:nope") {
		t.Error("expected invalid identity")
	}
}
