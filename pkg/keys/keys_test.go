package keys_test

import (
	"testing"

	"github.com/attestprotocol/attest/pkg/keys"
)

func TestFromDecimal_roundTrip(t *testing.T) {
	k, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}

	k2, err := keys.FromDecimal(k.Decimal())
	if err != nil {
		t.Fatal(err)
	}
	if k2.Address() != k.Address() {
		t.Error("decimal round trip changed the derived address")
	}
}

func TestFromDecimal_rejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "0"} {
		if _, err := keys.FromDecimal(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestAddress_deterministic(t *testing.T) {
	k, err := keys.FromDecimal("123456789")
	if err != nil {
		t.Fatal(err)
	}
	a1 := k.Address()
	a2 := k.Address()
	if a1 != a2 {
		t.Error("address derivation is not deterministic")
	}
	if a1.IsZero() {
		t.Error("derived address is zero")
	}
}

func TestSignContent_recoveryID(t *testing.T) {
	k, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}
	sig := k.SignContent([]byte("evidence content"))
	if sig.V != 27 && sig.V != 28 {
		t.Errorf("expected v in {27,28}, got %d", sig.V)
	}
}
